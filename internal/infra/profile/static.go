package profile

import (
	"context"
	"slices"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

// StaticProvider answers every lookup with the same profile. The device agent
// knows its own timezone and trial window.
type StaticProvider struct {
	profile domain.UserProfile
}

func NewStaticProvider(timezone string, trialEnd *time.Time, pushTokens ...string) *StaticProvider {
	return &StaticProvider{profile: domain.UserProfile{
		Timezone:     timezone,
		TrialEndDate: trialEnd,
		PushTokens:   pushTokens,
	}}
}

func (p *StaticProvider) GetProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	out := p.profile
	out.UserID = userID
	out.PushTokens = slices.Clone(p.profile.PushTokens)
	return &out, nil
}
