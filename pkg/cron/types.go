package cron

// ScheduleKind selects how a job's next run is computed.
type ScheduleKind string

const (
	ScheduleKindAt    ScheduleKind = "at"
	ScheduleKindEvery ScheduleKind = "every"
	ScheduleKindCron  ScheduleKind = "cron"
)

// Schedule describes when a job fires. Exactly one of At, EveryMs or
// Expr is used depending on Kind.
type Schedule struct {
	Kind    ScheduleKind `json:"kind"`
	At      string       `json:"at,omitempty"`      // RFC3339 timestamp, one-shot
	EveryMs int64        `json:"everyMs,omitempty"` // fixed interval
	Expr    string       `json:"expr,omitempty"`    // cron expression
}

// Job is a scheduled prompt delivered to the agent as a cron message.
type Job struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Schedule  Schedule `json:"schedule"`
	Message   string   `json:"message"`
	Channel   string   `json:"channel,omitempty"`
	ChatID    string   `json:"chat_id,omitempty"`
	Enabled   bool     `json:"enabled"`
	NextRunMs int64    `json:"next_run_ms"`
	LastRunMs int64    `json:"last_run_ms,omitempty"`
	CreatedMs int64    `json:"created_ms"`
}
