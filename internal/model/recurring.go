package model

import "github.com/theirongolddev/fintrack/internal/calendar"

// Frequency is how often a recurring rule fires.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Frequencies lists every supported frequency in ascending period order.
var Frequencies = []Frequency{Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly}

// RecurringRule is a template for a transaction that repeats on a fixed schedule.
type RecurringRule struct {
	ID            ID            `json:"id"`
	Type          TxType        `json:"type"`
	Category      string        `json:"category"`
	Amount        float64       `json:"amount"`
	Description   string        `json:"description"`
	Frequency     Frequency     `json:"frequency"`
	StartDate     calendar.Date `json:"startDate"`
	LastGenerated calendar.Date `json:"lastGenerated,omitzero"` // zero until something is materialized
	Tags          TagSet        `json:"tags"`
}

func (r RecurringRule) Clone() RecurringRule {
	r.Tags = r.Tags.Clone()
	return r
}
