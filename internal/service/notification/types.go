package notification

import (
	"fmt"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

type ScheduledSlot struct {
	Slot   string    `json:"slot"`
	Origin string    `json:"origin"`
	Handle string    `json:"handle"`
	FireAt time.Time `json:"fire_at"`
}

type ResultItem struct {
	Index     int             `json:"index"`
	SourceID  string          `json:"source_id,omitempty"`
	Category  domain.Category `json:"category"`
	Active    bool            `json:"active"`
	Slots     []ScheduledSlot `json:"slots,omitempty"`
	Cancelled int             `json:"cancelled"`
	Warnings  []string        `json:"warnings,omitempty"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
}

type BatchResult struct {
	UserID         string       `json:"user_id"`
	Timezone       string       `json:"timezone"`
	TotalCount     int          `json:"total_count"`
	ScheduledCount int          `json:"scheduled_count"`
	FailedCount    int          `json:"failed_count"`
	Summary        string       `json:"summary"`
	Results        []ResultItem `json:"results"`
}

func (r *BatchResult) summarize() {
	r.ScheduledCount = 0
	r.FailedCount = 0
	for _, item := range r.Results {
		if item.Success {
			r.ScheduledCount++
		} else {
			r.FailedCount++
		}
	}
	r.TotalCount = len(r.Results)
	r.Summary = fmt.Sprintf("%d of %d notifications scheduled successfully", r.ScheduledCount, r.TotalCount)
}
