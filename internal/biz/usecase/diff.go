package usecase

import "github.com/leaguewatch/schedule-notifier/internal/biz/domain"

// DiffResult is the outcome of comparing a batch against the marker
type DiffResult struct {
	Unseen []domain.LogRecord // ascending by SequenceID
	Marker *int64             // marker to persist once the unseen records are classified
}

// Advanced reports whether the marker moves compared to old
func (d DiffResult) Advanced(old *int64) bool {
	if d.Marker == nil {
		return false
	}
	return old == nil || *d.Marker > *old
}

// DiffRecords returns the records newer than marker. A nil marker means
// first contact and every record is unseen. The batch is authoritative:
// records are ordered by sequence id regardless of arrival order and gaps
// are not filled. The returned marker never moves backwards.
func DiffRecords(records []domain.LogRecord, marker *int64) DiffResult {
	result := DiffResult{Marker: marker}

	seen := make(map[int64]bool, len(records))
	for _, r := range records {
		if marker != nil && r.SequenceID <= *marker {
			continue
		}
		if seen[r.SequenceID] {
			continue
		}
		seen[r.SequenceID] = true
		result.Unseen = append(result.Unseen, r)
	}
	domain.SortRecords(result.Unseen)

	if n := len(result.Unseen); n > 0 {
		top := result.Unseen[n-1].SequenceID
		result.Marker = &top
	}
	return result
}
