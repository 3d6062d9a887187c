package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

// memoryRepository keeps everything in process. Used by the device agent
// when no shared store is configured and by tests.
type memoryRepository struct {
	mu          sync.RWMutex
	descriptors map[string]map[string]*domain.NotificationDescriptor // userID -> sourceID -> descriptor
	occurrences map[string]*domain.ScheduledOccurrence               // handle -> occurrence
	byIdentity  map[string][]string                                  // identity key -> handles
}

func NewMemoryRepository() domain.NotificationRepository {
	return &memoryRepository{
		descriptors: make(map[string]map[string]*domain.NotificationDescriptor),
		occurrences: make(map[string]*domain.ScheduledOccurrence),
		byIdentity:  make(map[string][]string),
	}
}

func (r *memoryRepository) SaveDescriptor(_ context.Context, d *domain.NotificationDescriptor) error {
	if d == nil || d.UserID == "" || d.SourceID == "" {
		return ErrInvalidDescriptorData
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byUser, ok := r.descriptors[d.UserID]
	if !ok {
		byUser = make(map[string]*domain.NotificationDescriptor)
		r.descriptors[d.UserID] = byUser
	}
	byUser[d.SourceID] = copyDescriptor(d)
	return nil
}

func (r *memoryRepository) GetDescriptor(_ context.Context, userID, sourceID string) (*domain.NotificationDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[userID][sourceID]
	if !ok {
		return nil, domain.ErrDescriptorNotFound
	}
	return copyDescriptor(d), nil
}

func (r *memoryRepository) ListDescriptors(_ context.Context, userID string) ([]*domain.NotificationDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.NotificationDescriptor, 0, len(r.descriptors[userID]))
	for _, d := range r.descriptors[userID] {
		out = append(out, copyDescriptor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out, nil
}

func (r *memoryRepository) DeleteDescriptor(_ context.Context, userID, sourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.descriptors[userID], sourceID)
	return nil
}

func (r *memoryRepository) SaveOccurrence(_ context.Context, occ *domain.ScheduledOccurrence) error {
	if occ == nil || occ.Handle == "" {
		return ErrInvalidOccurrenceData
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := identityKey(occ.UserID, occ.DescriptorID)
	if _, exists := r.occurrences[occ.Handle]; !exists {
		r.byIdentity[key] = append(r.byIdentity[key], occ.Handle)
	}
	r.occurrences[occ.Handle] = copyOccurrence(occ)
	return nil
}

func (r *memoryRepository) GetOccurrence(_ context.Context, handle string) (*domain.ScheduledOccurrence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	occ, ok := r.occurrences[handle]
	if !ok {
		return nil, domain.ErrOccurrenceNotFound
	}
	return copyOccurrence(occ), nil
}

func (r *memoryRepository) ListOccurrences(_ context.Context, userID, sourceID string) ([]*domain.ScheduledOccurrence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := r.byIdentity[identityKey(userID, sourceID)]
	out := make([]*domain.ScheduledOccurrence, 0, len(handles))
	for _, h := range handles {
		if occ, ok := r.occurrences[h]; ok {
			out = append(out, copyOccurrence(occ))
		}
	}
	return out, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, handle string, from, to domain.OccurrenceStatus, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	occ, ok := r.occurrences[handle]
	if !ok {
		return false, domain.ErrOccurrenceNotFound
	}
	if occ.Status != from {
		return false, nil
	}

	occ.Status = to
	occ.UpdatedAt = time.Now().UTC()
	if reason != "" {
		occ.LastError = reason
	}
	return true, nil
}

func (r *memoryRepository) ListDue(_ context.Context, now time.Time, limit int) ([]*domain.ScheduledOccurrence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ScheduledOccurrence, 0)
	for _, occ := range r.occurrences {
		if occ.Origin != domain.OriginServer || occ.Status != domain.StatusScheduled {
			continue
		}
		if occ.FireAt.After(now) {
			continue
		}
		out = append(out, copyOccurrence(occ))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].Handle < out[j].Handle
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func identityKey(userID, sourceID string) string {
	return userID + ":" + sourceID
}

func copyDescriptor(d *domain.NotificationDescriptor) *domain.NotificationDescriptor {
	c := *d
	c.Recurrence.Days = slices.Clone(d.Recurrence.Days)
	return &c
}

func copyOccurrence(o *domain.ScheduledOccurrence) *domain.ScheduledOccurrence {
	c := *o
	c.PushTokens = slices.Clone(o.PushTokens)
	return &c
}
