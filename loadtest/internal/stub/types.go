package stub

type ProfileResponse struct {
	UserID       string   `json:"user_id"`
	Timezone     string   `json:"timezone"`
	TrialEndDate string   `json:"trial_end_date,omitempty"`
	PushTokens   []string `json:"push_tokens"`
}

type SeedRequest struct {
	Groups []SeedGroup `json:"groups"`
}

// SeedGroup describes Count synthetic users sharing one profile shape.
type SeedGroup struct {
	Count         int    `json:"count"`
	Timezone      string `json:"timezone"`
	TrialEndDate  string `json:"trial_end_date,omitempty"`
	TokensPerUser int    `json:"tokens_per_user"`
	// RejectRatio is the share of users whose tokens the push receiver rejects.
	RejectRatio float64 `json:"reject_ratio"`
}

type ExpoPushRequest struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

type ExpoTicket struct {
	Status  string            `json:"status"`
	ID      string            `json:"id,omitempty"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ExpoPushResponse struct {
	Data ExpoTicket `json:"data"`
}

type PushStats struct {
	RunID      string `json:"run_id"`
	Received   int    `json:"received"`
	Accepted   int    `json:"accepted"`
	Rejected   int    `json:"rejected"`
	Duplicates int    `json:"duplicates"`
}
