package scrape

import (
	"sort"

	"github.com/raphaelgruber/journeys/internal/models"
)

// Hit is a classified and scored search result.
type Hit struct {
	Resource     models.Resource
	Snippet      string
	AdapterIndex int
	Rank         int
}

// beats reports whether a should win over b for the same URL.
func (a Hit) beats(b Hit) bool {
	if a.Resource.Score != b.Resource.Score {
		return a.Resource.Score > b.Resource.Score
	}
	if a.AdapterIndex != b.AdapterIndex {
		return a.AdapterIndex < b.AdapterIndex
	}
	return a.Rank < b.Rank
}

// Dedup collapses hits that share a resource id, keeping the best scored
// one. Ties go to the earlier adapter, then the earlier rank. The result is
// in order of each URL's first appearance in hits.
func Dedup(hits []Hit) []Hit {
	index := make(map[string]int, len(hits))
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		i, seen := index[h.Resource.ID]
		if !seen {
			index[h.Resource.ID] = len(out)
			out = append(out, h)
			continue
		}
		if h.beats(out[i]) {
			out[i] = h
		}
	}
	return out
}

// TopN keeps the n best scored hits, preserving their relative order.
func TopN(hits []Hit, n int) []Hit {
	if n <= 0 || len(hits) <= n {
		return hits
	}
	idx := make([]int, len(hits))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return hits[idx[a]].Resource.Score > hits[idx[b]].Resource.Score
	})
	keep := idx[:n]
	sort.Ints(keep)
	out := make([]Hit, n)
	for i, k := range keep {
		out[i] = hits[k]
	}
	return out
}
