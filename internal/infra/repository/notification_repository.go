package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

const (
	descriptorKeyPrefix     = "notify:desc:"
	userDescriptorKeyPrefix = "notify:user:"
	occurrenceKeyPrefix     = "notify:occ:"
	identityKeyPrefix       = "notify:ident:"
	dueKey                  = "notify:due"

	terminalRetention = 30 * 24 * time.Hour // sent/cancelled/failed kept for inspection

	fieldData      = "data"
	fieldStatus    = "status"
	fieldError     = "error"
	fieldUpdatedAt = "updated_at"
)

// transitionScript flips the status field only if it still holds the
// expected value. Returns -1 when the record is gone, 0 when another writer
// got there first and 1 on success.
var transitionScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'status')
if not current then
	return -1
end
if current ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[2], 'updated_at', ARGV[5])
if ARGV[3] ~= '' then
	redis.call('HSET', KEYS[1], 'error', ARGV[3])
end
if ARGV[2] ~= 'scheduled' then
	redis.call('ZREM', KEYS[2], ARGV[4])
	redis.call('PEXPIRE', KEYS[1], ARGV[6])
end
return 1
`)

type descriptorRecord struct {
	SourceID   string            `json:"source_id"`
	UserID     string            `json:"user_id"`
	Message    string            `json:"message"`
	TimeOfDay  domain.TimeOfDay  `json:"time_of_day"`
	Recurrence domain.Recurrence `json:"recurrence"`
	Category   string            `json:"category"`
	IsActive   bool              `json:"is_active"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type occurrenceRecord struct {
	Handle       string           `json:"handle"`
	DescriptorID string           `json:"descriptor_id"`
	UserID       string           `json:"user_id"`
	Category     string           `json:"category"`
	Slot         string           `json:"slot"`
	Message      string           `json:"message"`
	FireAt       time.Time        `json:"fire_at"`
	Timezone     string           `json:"timezone"`
	TimeOfDay    domain.TimeOfDay `json:"time_of_day"`
	Weekday      time.Weekday     `json:"weekday"`
	Weekly       bool             `json:"weekly"`
	Origin       string           `json:"origin"`
	PushTokens   []string         `json:"push_tokens,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

type notificationRepository struct {
	client *redis.Client
}

func NewNotificationRepository(client *redis.Client) domain.NotificationRepository {
	return &notificationRepository{
		client: client,
	}
}

func descriptorKey(userID, sourceID string) string {
	return descriptorKeyPrefix + userID + ":" + sourceID
}

func userDescriptorsKey(userID string) string {
	return userDescriptorKeyPrefix + userID + ":desc"
}

func occurrenceKey(handle string) string {
	return occurrenceKeyPrefix + handle
}

func identitySetKey(userID, sourceID string) string {
	return identityKeyPrefix + userID + ":" + sourceID
}

func (r *notificationRepository) SaveDescriptor(ctx context.Context, d *domain.NotificationDescriptor) error {
	if d == nil || d.UserID == "" || d.SourceID == "" {
		return ErrInvalidDescriptorData
	}

	data, err := json.Marshal(descriptorRecord{
		SourceID:   d.SourceID,
		UserID:     d.UserID,
		Message:    d.Message,
		TimeOfDay:  d.TimeOfDay,
		Recurrence: d.Recurrence,
		Category:   d.Category.String(),
		IsActive:   d.IsActive,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	})
	if err != nil {
		return ErrInvalidDescriptorData
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, descriptorKey(d.UserID, d.SourceID), data, 0)
	pipe.SAdd(ctx, userDescriptorsKey(d.UserID), d.SourceID)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *notificationRepository) GetDescriptor(ctx context.Context, userID, sourceID string) (*domain.NotificationDescriptor, error) {
	data, err := r.client.Get(ctx, descriptorKey(userID, sourceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrDescriptorNotFound
		}
		return nil, err
	}

	return decodeDescriptor(data)
}

func decodeDescriptor(data []byte) (*domain.NotificationDescriptor, error) {
	var record descriptorRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, ErrInvalidDescriptorData
	}

	return &domain.NotificationDescriptor{
		SourceID:   record.SourceID,
		UserID:     record.UserID,
		Message:    record.Message,
		TimeOfDay:  record.TimeOfDay,
		Recurrence: record.Recurrence,
		Category:   domain.Category(record.Category),
		IsActive:   record.IsActive,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}, nil
}

func (r *notificationRepository) ListDescriptors(ctx context.Context, userID string) ([]*domain.NotificationDescriptor, error) {
	sourceIDs, err := r.client.SMembers(ctx, userDescriptorsKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(sourceIDs) == 0 {
		return []*domain.NotificationDescriptor{}, nil
	}

	keys := make([]string, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		keys = append(keys, descriptorKey(userID, id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	descriptors := make([]*domain.NotificationDescriptor, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		d, err := decodeDescriptor([]byte(raw))
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

func (r *notificationRepository) DeleteDescriptor(ctx context.Context, userID, sourceID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, descriptorKey(userID, sourceID))
	pipe.SRem(ctx, userDescriptorsKey(userID), sourceID)

	_, err := pipe.Exec(ctx)
	return err
}

func (r *notificationRepository) SaveOccurrence(ctx context.Context, occ *domain.ScheduledOccurrence) error {
	if occ == nil || occ.Handle == "" {
		return ErrInvalidOccurrenceData
	}

	data, err := json.Marshal(occurrenceRecord{
		Handle:       occ.Handle,
		DescriptorID: occ.DescriptorID,
		UserID:       occ.UserID,
		Category:     occ.Category.String(),
		Slot:         occ.Slot,
		Message:      occ.Message,
		FireAt:       occ.FireAt,
		Timezone:     occ.Timezone,
		TimeOfDay:    occ.TimeOfDay,
		Weekday:      occ.Weekday,
		Weekly:       occ.Weekly,
		Origin:       occ.Origin.String(),
		PushTokens:   occ.PushTokens,
		CreatedAt:    occ.CreatedAt,
	})
	if err != nil {
		return ErrInvalidOccurrenceData
	}

	key := occurrenceKey(occ.Handle)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldData, data,
		fieldStatus, occ.Status.String(),
		fieldError, occ.LastError,
		fieldUpdatedAt, strconv.FormatInt(occ.UpdatedAt.UnixMilli(), 10),
	)
	pipe.SAdd(ctx, identitySetKey(occ.UserID, occ.DescriptorID), occ.Handle)
	if occ.Origin == domain.OriginServer && occ.Status == domain.StatusScheduled {
		pipe.ZAdd(ctx, dueKey, redis.Z{Score: float64(occ.FireAt.Unix()), Member: occ.Handle})
	} else {
		pipe.ZRem(ctx, dueKey, occ.Handle)
	}
	if occ.Status.Terminal() {
		pipe.Expire(ctx, key, terminalRetention)
	}

	_, err = pipe.Exec(ctx)
	return err
}

func (r *notificationRepository) GetOccurrence(ctx context.Context, handle string) (*domain.ScheduledOccurrence, error) {
	fields, err := r.client.HGetAll(ctx, occurrenceKey(handle)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrOccurrenceNotFound
	}

	return decodeOccurrence(fields)
}

func decodeOccurrence(fields map[string]string) (*domain.ScheduledOccurrence, error) {
	var record occurrenceRecord
	if err := json.Unmarshal([]byte(fields[fieldData]), &record); err != nil {
		return nil, ErrInvalidOccurrenceData
	}

	var updatedAt time.Time
	if ms, err := strconv.ParseInt(fields[fieldUpdatedAt], 10, 64); err == nil && ms > 0 {
		updatedAt = time.UnixMilli(ms).UTC()
	}

	return &domain.ScheduledOccurrence{
		Handle:       record.Handle,
		DescriptorID: record.DescriptorID,
		UserID:       record.UserID,
		Category:     domain.Category(record.Category),
		Slot:         record.Slot,
		Message:      record.Message,
		FireAt:       record.FireAt,
		Timezone:     record.Timezone,
		TimeOfDay:    record.TimeOfDay,
		Weekday:      record.Weekday,
		Weekly:       record.Weekly,
		Status:       domain.OccurrenceStatus(fields[fieldStatus]),
		Origin:       domain.Origin(record.Origin),
		PushTokens:   record.PushTokens,
		LastError:    fields[fieldError],
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func (r *notificationRepository) ListOccurrences(ctx context.Context, userID, sourceID string) ([]*domain.ScheduledOccurrence, error) {
	setKey := identitySetKey(userID, sourceID)

	handles, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}

	occurrences, missing, err := r.loadOccurrences(ctx, handles)
	if err != nil {
		return nil, err
	}

	// Terminal records expire on their own; drop their index entries.
	if len(missing) > 0 {
		members := make([]any, 0, len(missing))
		for _, h := range missing {
			members = append(members, h)
		}
		if err := r.client.SRem(ctx, setKey, members...).Err(); err != nil {
			return nil, err
		}
	}

	return occurrences, nil
}

func (r *notificationRepository) loadOccurrences(ctx context.Context, handles []string) ([]*domain.ScheduledOccurrence, []string, error) {
	if len(handles) == 0 {
		return []*domain.ScheduledOccurrence{}, nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(handles))
	for _, h := range handles {
		cmds = append(cmds, pipe.HGetAll(ctx, occurrenceKey(h)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, nil, err
	}

	occurrences := make([]*domain.ScheduledOccurrence, 0, len(handles))
	var missing []string
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			missing = append(missing, handles[i])
			continue
		}
		occ, err := decodeOccurrence(fields)
		if err != nil {
			return nil, nil, err
		}
		occurrences = append(occurrences, occ)
	}

	return occurrences, missing, nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, handle string, from, to domain.OccurrenceStatus, reason string) (bool, error) {
	res, err := transitionScript.Run(ctx, r.client,
		[]string{occurrenceKey(handle), dueKey},
		from.String(),
		to.String(),
		reason,
		handle,
		strconv.FormatInt(time.Now().UnixMilli(), 10),
		terminalRetention.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}

	switch res {
	case -1:
		return false, domain.ErrOccurrenceNotFound
	case 1:
		return true, nil
	default:
		return false, nil
	}
}

func (r *notificationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.ScheduledOccurrence, error) {
	opt := &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}
	if limit > 0 {
		opt.Count = int64(limit)
	}

	handles, err := r.client.ZRangeByScore(ctx, dueKey, opt).Result()
	if err != nil {
		return nil, err
	}

	occurrences, missing, err := r.loadOccurrences(ctx, handles)
	if err != nil {
		return nil, err
	}

	if len(missing) > 0 {
		members := make([]any, 0, len(missing))
		for _, h := range missing {
			members = append(members, h)
		}
		if err := r.client.ZRem(ctx, dueKey, members...).Err(); err != nil {
			return nil, err
		}
	}

	due := make([]*domain.ScheduledOccurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		if occ.Status == domain.StatusScheduled && !occ.FireAt.After(now) {
			due = append(due, occ)
		}
	}
	return due, nil
}
