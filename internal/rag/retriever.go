package rag

import (
	"context"
	"sort"
	"strings"

	"github.com/zerotouch/onboard/pkg/storage"
)

// Snippet is one ranked retrieval result.
type Snippet struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Retriever returns ranked policy snippets for a query. An empty index
// yields an empty result, never an error.
type Retriever interface {
	Query(ctx context.Context, query string, k int) ([]Snippet, error)
}

// StoreRetriever ranks policy chunks persisted in the store by keyword
// overlap with the query. It is the offline stand-in for a vector index:
// the contract (ranked snippets, empty when nothing is indexed) is what the
// orchestrator depends on, not the scoring method.
type StoreRetriever struct {
	store storage.Store
}

func NewStoreRetriever(store storage.Store) *StoreRetriever {
	return &StoreRetriever{store: store}
}

func (r *StoreRetriever) Query(ctx context.Context, query string, k int) ([]Snippet, error) {
	if k <= 0 {
		k = 3
	}
	chunks, err := r.store.ListPolicyChunks()
	if err != nil {
		return nil, err
	}
	terms := tokenize(query)
	if len(terms) == 0 || len(chunks) == 0 {
		return []Snippet{}, nil
	}

	var ranked []Snippet
	for _, c := range chunks {
		words := tokenize(c.Text)
		hits := 0
		for term := range terms {
			if _, ok := words[term]; ok {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		ranked = append(ranked, Snippet{
			Text:   c.Text,
			Source: c.Source,
			Score:  float64(hits) / float64(len(terms)),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	if ranked == nil {
		ranked = []Snippet{}
	}
	return ranked, nil
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?()[]\"'")
		if len(w) > 2 {
			out[w] = struct{}{}
		}
	}
	return out
}

// JoinContext flattens snippets into the context block passed to the LLM.
func JoinContext(snippets []Snippet) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n")
}
