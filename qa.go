package shower

import (
	"github.com/samber/lo"
)

// QualityInfo summarizes per-file consistency checks across every event
// processed, surfaced to the operator after a run completes.
type QualityInfo struct {
	MinMaxTelescopes  []int
	ConsistentTelCount bool
	DuplicateEventIDs []int
	HasDuplicates     bool
	EventsProcessed   int
	EventsReconstructed int
}

// QAAccumulator collects per-event observations as a file is processed; call
// Observe once per event and Finish once at the end to get the QualityInfo.
type QAAccumulator struct {
	telCounts []int
	eventIDs  []int
	reconOK   int
}

// NewQAAccumulator returns an empty QAAccumulator ready for Observe calls.
func NewQAAccumulator() *QAAccumulator {
	return &QAAccumulator{}
}

// Observe records one processed event's telescope count, id, and whether any
// reconstructor produced a valid geometry.
func (q *QAAccumulator) Observe(event *ArrayEvent) {
	q.telCounts = append(q.telCounts, len(event.DL1))
	q.eventIDs = append(q.eventIDs, event.EventID)

	if event.DL2 == nil {
		return
	}
	for _, geom := range event.DL2.Geometry {
		if geom.IsValid {
			q.reconOK++
			break
		}
	}
}

// Finish computes the final QualityInfo from every Observe call so far.
//
// Duplicate event ids can legitimately arise when a run split across files
// repeats the trailing event of one file as the leading event of the next.
func (q *QAAccumulator) Finish() QualityInfo {
	var qi QualityInfo

	if len(q.telCounts) > 0 {
		qi.MinMaxTelescopes = []int{lo.Min(q.telCounts), lo.Max(q.telCounts)}
		qi.ConsistentTelCount = qi.MinMaxTelescopes[0] == qi.MinMaxTelescopes[1]
	}

	duplicates := lo.FindDuplicates(q.eventIDs)
	qi.DuplicateEventIDs = duplicates
	qi.HasDuplicates = len(duplicates) > 0

	qi.EventsProcessed = len(q.eventIDs)
	qi.EventsReconstructed = q.reconOK

	return qi
}
