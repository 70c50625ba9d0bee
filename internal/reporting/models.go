package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type CallsSummary struct {
	Range TimeRange `json:"range"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	NoAnswerCalls   int `json:"no_answer_calls"`
	BusyCalls       int `json:"busy_calls"`
	CanceledCalls   int `json:"canceled_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	RecordedCalls    int `json:"recorded_calls"`
	SummarizedCalls  int `json:"summarized_calls"`
	UnmatchedRecords int `json:"unmatched_records"`

	ConnectionRate float64 `json:"connection_rate"`

	Organizations []OrganizationCalls `json:"organizations"`
}

// OrganizationCalls is the per-organization slice of a summary.
type OrganizationCalls struct {
	OrganizationID   int64  `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Calls            int    `json:"calls"`
	Completed        int    `json:"completed"`
	DurationSeconds  int    `json:"duration_seconds"`
}
