package anomaly

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityOf grades a z-score by how far it exceeds the threshold.
func SeverityOf(score, threshold float64) Severity {
	switch {
	case score >= 3*threshold:
		return SeverityCritical
	case score >= 2*threshold:
		return SeverityHigh
	case score >= 1.5*threshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Event is a run of flagged indices. Start and End are inclusive.
type Event struct {
	Start    int
	End      int
	Count    int
	Peak     int
	MaxScore float64
	Severity Severity
}

func (e Event) Span() int {
	return e.End - e.Start + 1
}

// MergeEvents groups flagged indices into events. Two flags belong to the
// same event when at most maxGap unflagged indices separate them. scores may
// be nil, in which case every event is graded low.
func MergeEvents(mask []bool, scores []float64, maxGap int, threshold float64) []Event {
	if maxGap < 0 {
		maxGap = 0
	}

	var events []Event
	var current *Event
	for _, i := range Indices(mask) {
		score := 0.0
		if i < len(scores) {
			score = scores[i]
		}

		if current != nil && i-current.End-1 <= maxGap {
			current.End = i
			current.Count++
			if score > current.MaxScore {
				current.MaxScore = score
				current.Peak = i
			}
			continue
		}

		if current != nil {
			events = append(events, finalizeEvent(*current, threshold))
		}
		current = &Event{Start: i, End: i, Count: 1, Peak: i, MaxScore: score}
	}
	if current != nil {
		events = append(events, finalizeEvent(*current, threshold))
	}
	return events
}

func finalizeEvent(e Event, threshold float64) Event {
	if threshold > 0 {
		e.Severity = SeverityOf(e.MaxScore, threshold)
	} else {
		e.Severity = SeverityLow
	}
	return e
}

// CountBySeverity tallies events per severity.
func CountBySeverity(events []Event) map[Severity]int {
	counts := make(map[Severity]int, 4)
	for _, e := range events {
		counts[e.Severity]++
	}
	return counts
}
