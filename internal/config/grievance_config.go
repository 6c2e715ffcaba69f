package config

import "time"

const (
	// SLA durations per priority, in hours
	SLAHoursHigh    = 48
	SLAHoursMedium  = 72
	SLAHoursLow     = 168
	SLAHoursDefault = SLAHoursMedium

	// Duplicate detection
	DefaultDuplicateThreshold = 0.86
	DefaultDuplicateWindow    = 200

	// Escalation sweep
	DefaultSweepSchedule = "0 * * * *"
	DefaultSweepLockTTL  = 50 * time.Minute

	// Embedding sidecar
	DefaultEmbedTimeout = 3 * time.Second

	// Auth
	DefaultTokenTTL = 7 * 24 * time.Hour
	BcryptCost      = 12
)

// SLAByPriority maps a priority tier to its resolution window in hours.
var SLAByPriority = map[string]int{
	"high":   SLAHoursHigh,
	"medium": SLAHoursMedium,
	"low":    SLAHoursLow,
}

// SLAHours returns the SLA window for a priority, falling back to the medium window.
func SLAHours(priority string) int {
	if h, ok := SLAByPriority[priority]; ok {
		return h
	}
	return SLAHoursDefault
}
