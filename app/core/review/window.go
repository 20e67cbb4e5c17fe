package review

import "time"

const secondsPerDay = 24 * 60 * 60

// WindowRequest is the caller's (possibly partial) description of the
// review period. Zero values mean "use the configured default".
type WindowRequest struct {
	Start               int64    `json:"start,omitempty"`
	End                 int64    `json:"end,omitempty"`
	ZombieThresholdDays int      `json:"zombie_threshold_days,omitempty"`
	ProjectFilters      []string `json:"project_filters,omitempty"`
}

// ReviewWindow is the fully resolved review period. It always satisfies
// Start <= End and lives only for one pipeline run.
type ReviewWindow struct {
	Start               int64    `json:"start"`
	End                 int64    `json:"end"`
	ZombieThresholdDays int      `json:"zombie_threshold_days"`
	ProjectFilters      []string `json:"project_filters,omitempty"`
}

// ResolveWindow fills defaults and repairs an inverted range by
// swapping the endpoints instead of failing.
func ResolveWindow(req WindowRequest, defaultWindowDays int, defaultThresholdDays int) ReviewWindow {
	if defaultWindowDays <= 0 {
		defaultWindowDays = 7
	}
	if defaultThresholdDays <= 0 {
		defaultThresholdDays = 14
	}

	end := req.End
	if end == 0 {
		end = time.Now().Unix()
	}
	start := req.Start
	if start == 0 {
		start = end - int64(defaultWindowDays)*secondsPerDay
	}
	if start > end {
		start, end = end, start
	}

	threshold := req.ZombieThresholdDays
	if threshold <= 0 {
		threshold = defaultThresholdDays
	}

	return ReviewWindow{
		Start:               start,
		End:                 end,
		ZombieThresholdDays: threshold,
		ProjectFilters:      req.ProjectFilters,
	}
}

// ZombieBoundary is the creation-time cutoff: tasks created at or
// before it have been sitting longer than the staleness threshold.
func (w ReviewWindow) ZombieBoundary() int64 {
	return w.End - int64(w.ZombieThresholdDays)*secondsPerDay
}

// StaleDays returns the whole days between a creation timestamp and
// the window end, clamped at zero.
func (w ReviewWindow) StaleDays(createdAt int64) int {
	days := (w.End - createdAt) / secondsPerDay
	if days < 0 {
		return 0
	}
	return int(days)
}
