package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

type descriptorModel struct {
	UserID         string `gorm:"primaryKey;size:128"`
	SourceID       string `gorm:"primaryKey;size:64"`
	Message        string `gorm:"not null"`
	Hour           int
	Minute         int
	RecurrenceKind string `gorm:"size:16"`
	Days           string `gorm:"type:text"`
	TrialDay       int
	Category       string `gorm:"size:16;index"`
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (descriptorModel) TableName() string {
	return "notification_descriptors"
}

type occurrenceModel struct {
	Handle       string    `gorm:"primaryKey;size:128"`
	DescriptorID string    `gorm:"size:64;index:idx_occurrence_identity"`
	UserID       string    `gorm:"size:128;index:idx_occurrence_identity"`
	Category     string    `gorm:"size:16"`
	Slot         string    `gorm:"size:16"`
	Message      string    `gorm:"not null"`
	FireAt       time.Time `gorm:"index:idx_occurrence_due,priority:3"`
	Timezone     string    `gorm:"size:64"`
	Hour         int
	Minute       int
	Weekday      int
	Weekly       bool
	Status       string `gorm:"size:16;index:idx_occurrence_due,priority:2"`
	Origin       string `gorm:"size:16;index:idx_occurrence_due,priority:1"`
	PushTokens   string `gorm:"type:text"`
	LastError    string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (occurrenceModel) TableName() string {
	return "scheduled_occurrences"
}

type postgresRepository struct {
	db *gorm.DB
}

// OpenPostgres connects with gorm and migrates the notification tables.
func OpenPostgres(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&descriptorModel{}, &occurrenceModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate notification tables: %w", err)
	}

	return db, nil
}

func NewPostgresRepository(db *gorm.DB) domain.NotificationRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) SaveDescriptor(ctx context.Context, d *domain.NotificationDescriptor) error {
	if d == nil || d.UserID == "" || d.SourceID == "" {
		return ErrInvalidDescriptorData
	}

	days, err := json.Marshal(d.Recurrence.Days)
	if err != nil {
		return ErrInvalidDescriptorData
	}

	model := descriptorModel{
		UserID:         d.UserID,
		SourceID:       d.SourceID,
		Message:        d.Message,
		Hour:           d.TimeOfDay.Hour,
		Minute:         d.TimeOfDay.Minute,
		RecurrenceKind: string(d.Recurrence.Kind),
		Days:           string(days),
		TrialDay:       d.Recurrence.TrialDay,
		Category:       d.Category.String(),
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}

	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *postgresRepository) GetDescriptor(ctx context.Context, userID, sourceID string) (*domain.NotificationDescriptor, error) {
	var model descriptorModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND source_id = ?", userID, sourceID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDescriptorNotFound
		}
		return nil, err
	}

	return model.toDomain()
}

func (m *descriptorModel) toDomain() (*domain.NotificationDescriptor, error) {
	var days []time.Weekday
	if m.Days != "" {
		if err := json.Unmarshal([]byte(m.Days), &days); err != nil {
			return nil, ErrInvalidDescriptorData
		}
	}

	return &domain.NotificationDescriptor{
		SourceID:  m.SourceID,
		UserID:    m.UserID,
		Message:   m.Message,
		TimeOfDay: domain.TimeOfDay{Hour: m.Hour, Minute: m.Minute},
		Recurrence: domain.Recurrence{
			Kind:     domain.RecurrenceKind(m.RecurrenceKind),
			Days:     days,
			TrialDay: m.TrialDay,
		},
		Category:  domain.Category(m.Category),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func (r *postgresRepository) ListDescriptors(ctx context.Context, userID string) ([]*domain.NotificationDescriptor, error) {
	var models []descriptorModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("source_id").
		Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*domain.NotificationDescriptor, 0, len(models))
	for i := range models {
		d, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *postgresRepository) DeleteDescriptor(ctx context.Context, userID, sourceID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND source_id = ?", userID, sourceID).
		Delete(&descriptorModel{}).Error
}

func (r *postgresRepository) SaveOccurrence(ctx context.Context, occ *domain.ScheduledOccurrence) error {
	if occ == nil || occ.Handle == "" {
		return ErrInvalidOccurrenceData
	}

	tokens, err := json.Marshal(occ.PushTokens)
	if err != nil {
		return ErrInvalidOccurrenceData
	}

	model := occurrenceModel{
		Handle:       occ.Handle,
		DescriptorID: occ.DescriptorID,
		UserID:       occ.UserID,
		Category:     occ.Category.String(),
		Slot:         occ.Slot,
		Message:      occ.Message,
		FireAt:       occ.FireAt.UTC(),
		Timezone:     occ.Timezone,
		Hour:         occ.TimeOfDay.Hour,
		Minute:       occ.TimeOfDay.Minute,
		Weekday:      int(occ.Weekday),
		Weekly:       occ.Weekly,
		Status:       occ.Status.String(),
		Origin:       occ.Origin.String(),
		PushTokens:   string(tokens),
		LastError:    occ.LastError,
		CreatedAt:    occ.CreatedAt,
		UpdatedAt:    occ.UpdatedAt,
	}

	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *postgresRepository) GetOccurrence(ctx context.Context, handle string) (*domain.ScheduledOccurrence, error) {
	var model occurrenceModel
	if err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOccurrenceNotFound
		}
		return nil, err
	}
	return model.toDomain()
}

func (m *occurrenceModel) toDomain() (*domain.ScheduledOccurrence, error) {
	var tokens []string
	if m.PushTokens != "" && m.PushTokens != "null" {
		if err := json.Unmarshal([]byte(m.PushTokens), &tokens); err != nil {
			return nil, ErrInvalidOccurrenceData
		}
	}

	return &domain.ScheduledOccurrence{
		Handle:       m.Handle,
		DescriptorID: m.DescriptorID,
		UserID:       m.UserID,
		Category:     domain.Category(m.Category),
		Slot:         m.Slot,
		Message:      m.Message,
		FireAt:       m.FireAt.UTC(),
		Timezone:     m.Timezone,
		TimeOfDay:    domain.TimeOfDay{Hour: m.Hour, Minute: m.Minute},
		Weekday:      time.Weekday(m.Weekday),
		Weekly:       m.Weekly,
		Status:       domain.OccurrenceStatus(m.Status),
		Origin:       domain.Origin(m.Origin),
		PushTokens:   tokens,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func (r *postgresRepository) ListOccurrences(ctx context.Context, userID, sourceID string) ([]*domain.ScheduledOccurrence, error) {
	var models []occurrenceModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND descriptor_id = ?", userID, sourceID).
		Order("fire_at").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return occurrenceModels(models)
}

func occurrenceModels(models []occurrenceModel) ([]*domain.ScheduledOccurrence, error) {
	out := make([]*domain.ScheduledOccurrence, 0, len(models))
	for i := range models {
		occ, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, occ)
	}
	return out, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, handle string, from, to domain.OccurrenceStatus, reason string) (bool, error) {
	updates := map[string]any{
		"status":     to.String(),
		"updated_at": time.Now().UTC(),
	}
	if reason != "" {
		updates["last_error"] = reason
	}

	res := r.db.WithContext(ctx).
		Model(&occurrenceModel{}).
		Where("handle = ? AND status = ?", handle, from.String()).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&occurrenceModel{}).Where("handle = ?", handle).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, domain.ErrOccurrenceNotFound
	}
	return false, nil
}

func (r *postgresRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.ScheduledOccurrence, error) {
	q := r.db.WithContext(ctx).
		Where("origin = ? AND status = ? AND fire_at <= ?", domain.OriginServer.String(), domain.StatusScheduled.String(), now.UTC()).
		Order("fire_at")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var models []occurrenceModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return occurrenceModels(models)
}
