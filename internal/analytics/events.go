// Package analytics records what the engine is asked and how it answers.
// Search events are published to Kafka by a background collector and can be
// folded into running statistics by an Aggregator.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventError      EventType = "error"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
	Query     string    `json:"query"`
	TotalHits uint64    `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Segments  int       `json:"segments"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSearchEvent classifies an outcome: a non-nil err gives EventError, no
// hits gives EventZeroResult.
func NewSearchEvent(requestID, query string, totalHits uint64, returned int, latency time.Duration, cacheHit bool, err error) SearchEvent {
	event := SearchEvent{
		Type:      EventSearch,
		RequestID: requestID,
		Query:     query,
		TotalHits: totalHits,
		Returned:  returned,
		LatencyMs: latency.Milliseconds(),
		CacheHit:  cacheHit,
		Timestamp: time.Now().UTC(),
	}
	switch {
	case err != nil:
		event.Type = EventError
	case totalHits == 0:
		event.Type = EventZeroResult
	}
	return event
}

// InvalidationNotice asks every engine instance to drop cached results.
type InvalidationNotice struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
