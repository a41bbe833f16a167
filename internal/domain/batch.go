package domain

import "time"

// PeriodBatch is the set of records normalized from one export file,
// covering one reporting period. Batches are ordered chronologically by the
// caller; the last batch is the current period.
type PeriodBatch struct {
	Label   string
	Start   time.Time
	End     time.Time
	Records []IncidentRecord
}

// DateRange returns the earliest and latest escalation timestamps in the
// batch. ok is false for an empty batch.
func (b PeriodBatch) DateRange() (start, end time.Time, ok bool) {
	if len(b.Records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start = b.Records[0].EscalatedAt
	end = b.Records[0].EscalatedAt
	for _, r := range b.Records[1:] {
		if r.EscalatedAt.Before(start) {
			start = r.EscalatedAt
		}
		if r.EscalatedAt.After(end) {
			end = r.EscalatedAt
		}
	}
	return start, end, true
}

// Days returns the number of calendar days the batch spans, at least 1.
func (b PeriodBatch) Days() int {
	start, end, ok := b.DateRange()
	if !ok {
		return 1
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days
}
