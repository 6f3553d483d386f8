package domain

import "time"

// Usage event names recorded in the usage log.
const (
	EventStart         = "start"
	EventCredentialSet = "credential_set"
)

// UsageStats aggregates the usage event log.
type UsageStats struct {
	TotalEvents int64
	UniqueUsers int64
	LatestAt    *time.Time
}
