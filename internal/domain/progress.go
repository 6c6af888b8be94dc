package domain

import "time"

// RoundPercent returns 100*part/whole rounded half-up, or 0 when whole is 0.
func RoundPercent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}

// RecomputeProgress derives progress from the milestone completion ratio.
// Without milestones the manually set progress is kept. Reaching 100% marks an
// open goal completed; dropping below 100% never reverts the status.
func RecomputeProgress(g *Goal, now time.Time) {
	if len(g.Milestones) == 0 {
		return
	}

	g.Progress = RoundPercent(g.CompletedMilestones(), len(g.Milestones))

	if g.Progress == 100 && g.Status != StatusCompleted {
		g.Status = StatusCompleted
		at := Timestamp(now)
		g.CompletedAt = &at
	}
}

// ApplyStatus sets the goal status directly. Moving into completed from any
// other status stamps CompletedAt and forces progress to 100 regardless of
// milestones. Leaving completed keeps CompletedAt.
func ApplyStatus(g *Goal, s Status, now time.Time) {
	if s == StatusCompleted && g.Status != StatusCompleted {
		at := Timestamp(now)
		g.CompletedAt = &at
		g.Progress = 100
	}
	g.Status = s
}

// SetCompleted toggles the milestone. The first completion stamps CompletedAt;
// un-completing keeps the stamp.
func (m *Milestone) SetCompleted(done bool, now time.Time) {
	m.Completed = done
	if done && m.CompletedAt == nil {
		at := Timestamp(now)
		m.CompletedAt = &at
	}
}
