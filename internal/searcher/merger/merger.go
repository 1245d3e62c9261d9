// Package merger combines per-segment top-k hit lists into one global top-k.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

// DocAddress locates a document in a searcher: the segment ordinal and the
// segment-local doc id.
type DocAddress struct {
	Segment uint32      `json:"segment"`
	Doc     index.DocID `json:"doc"`
}

// Hit is a scored document.
type Hit struct {
	Address DocAddress `json:"address"`
	Score   float64    `json:"score"`
}

// better orders hits by descending score, then ascending address.
func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Address.Segment != b.Address.Segment {
		return a.Address.Segment < b.Address.Segment
	}
	return a.Address.Doc < b.Address.Doc
}

// TopK keeps the best limit hits pushed into it.
type TopK struct {
	limit int
	h     hitHeap
}

func NewTopK(limit int) *TopK {
	if limit <= 0 {
		limit = 10
	}
	return &TopK{limit: limit}
}

func (t *TopK) Push(hit Hit) {
	if t.h.Len() < t.limit {
		heap.Push(&t.h, hit)
		return
	}
	if better(hit, t.h[0]) {
		t.h[0] = hit
		heap.Fix(&t.h, 0)
	}
}

func (t *TopK) Len() int { return t.h.Len() }

// Sorted drains the collector, best hit first.
func (t *TopK) Sorted() []Hit {
	result := make([]Hit, t.h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&t.h).(Hit)
	}
	return result
}

// Merge returns the best limit hits across all segment results.
func Merge(segmentResults [][]Hit, limit int) []Hit {
	top := NewTopK(limit)
	for _, results := range segmentResults {
		for _, hit := range results {
			top.Push(hit)
		}
	}
	return top.Sorted()
}

// hitHeap is a min-heap on hit quality: the root is the worst kept hit.
type hitHeap []Hit

func (h hitHeap) Len() int { return len(h) }

func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }

func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x interface{}) {
	*h = append(*h, x.(Hit))
}

func (h *hitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
