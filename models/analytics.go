package models

// FunnelResult describes conversion between two named events.
type FunnelResult struct {
	StartEvent         string  `json:"start_event"`
	EndEvent           string  `json:"end_event"`
	StartCount         int     `json:"start_count"`
	EndCount           int     `json:"end_count"`
	DropRate           float64 `json:"drop_rate"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

// StepFunnelEntry is one step of the step funnel. DropRate is relative to
// the previous step and always 0 for the first.
type StepFunnelEntry struct {
	Step     string  `json:"step"`
	Label    string  `json:"label"`
	Sessions int     `json:"sessions"`
	DropRate float64 `json:"drop_rate"`
}

// RetentionResult counts identifiers that repeated Event within WindowDays.
type RetentionResult struct {
	Event                string  `json:"event"`
	TotalUsers           int     `json:"total_users"`
	RetainedUsers        int     `json:"retained_users"`
	RetentionRatePercent float64 `json:"retention_rate_percent"`
	WindowDays           int     `json:"window_days"`
}

type FunnelPair struct {
	RecordFunnel   FunnelResult `json:"record_funnel"`
	AnalysisFunnel FunnelResult `json:"analysis_funnel"`
}

// MetricsSnapshot is the body of the debug metrics endpoint.
type MetricsSnapshot struct {
	DropThresholdMinutes int               `json:"drop_threshold_minutes"`
	Funnel               FunnelPair        `json:"funnel"`
	StepFunnel           []StepFunnelEntry `json:"step_funnel"`
	Retention            RetentionResult   `json:"retention"`
}
