package domain

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -source=profile.go -destination=profile_mock.go -package=domain

var ErrProfileNotFound = errors.New("user profile not found")

// UserProfile is what scheduling needs to know about a user.
type UserProfile struct {
	UserID       string
	Timezone     string
	TrialEndDate *time.Time
	PushTokens   []string
}

type ProfileProvider interface {
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
}
