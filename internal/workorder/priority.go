package workorder

import "strings"

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// NormalizePriority maps free text onto the four priorities. Unrecognised
// values become medium.
func NormalizePriority(raw string) Priority {
	p, _ := ParsePriority(raw)
	return p
}

// ParsePriority is NormalizePriority plus whether raw matched a known level.
// An empty value is reported as recognised since it carries no data to lose.
func ParsePriority(raw string) (Priority, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(v, "crit"):
		return PriorityCritical, true
	case strings.Contains(v, "high"):
		return PriorityHigh, true
	case strings.Contains(v, "low"):
		return PriorityLow, true
	case strings.Contains(v, "medium"), v == "":
		return PriorityMedium, true
	default:
		return PriorityMedium, false
	}
}
