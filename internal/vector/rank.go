package vector

import "sort"

// Scored pairs a candidate position with its similarity to the query.
type Scored struct {
	Index int
	Score float64
}

// Rank scores every candidate against query and orders them by descending score.
// Equal scores keep candidate order.
func Rank(query []float32, candidates [][]float32) []Scored {
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		out[i] = Scored{Index: i, Score: CosineSimilarity(query, c)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
