package rag_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zerotouch/onboard/internal/rag"
	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

func seedChunks(t *testing.T, store storage.Store) {
	t.Helper()
	chunks := []models.PolicyChunk{
		{Source: "equity policy", Text: "Stock options vest over four years with a one-year cliff."},
		{Source: "it policy", Text: "Laptops and monitors are provisioned by IT before the start date."},
		{Source: "confidentiality policy", Text: "Employees must protect confidential and proprietary information."},
	}
	for _, c := range chunks {
		_, err := store.SavePolicyChunk(c)
		assert.NoError(t, err)
	}
}

func TestStoreRetrieverQuery(t *testing.T) {
	store := storage.NewMockStore()
	seedChunks(t, store)
	retriever := rag.NewStoreRetriever(store)

	snippets, err := retriever.Query(context.Background(), "equity stock options vesting compensation", 3)
	assert.NoError(t, err)
	assert.NotEmpty(t, snippets)
	assert.Equal(t, "equity policy", snippets[0].Source)
	assert.Greater(t, snippets[0].Score, 0.0)
	for i := 1; i < len(snippets); i++ {
		assert.LessOrEqual(t, snippets[i].Score, snippets[i-1].Score)
	}
}

func TestStoreRetrieverLimitsResults(t *testing.T) {
	store := storage.NewMockStore()
	seedChunks(t, store)
	retriever := rag.NewStoreRetriever(store)

	snippets, err := retriever.Query(context.Background(), "policy information employees options", 1)
	assert.NoError(t, err)
	assert.LessOrEqual(t, len(snippets), 1)
}

func TestStoreRetrieverEmptyIndex(t *testing.T) {
	retriever := rag.NewStoreRetriever(storage.NewMockStore())

	snippets, err := retriever.Query(context.Background(), "anything at all", 3)
	assert.NoError(t, err)
	assert.Empty(t, snippets)
	assert.NotNil(t, snippets)
}

func TestStoreRetrieverNoMatches(t *testing.T) {
	store := storage.NewMockStore()
	seedChunks(t, store)
	retriever := rag.NewStoreRetriever(store)

	snippets, err := retriever.Query(context.Background(), "zzz qqq xxx", 3)
	assert.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestJoinContext(t *testing.T) {
	assert.Equal(t, "", rag.JoinContext(nil))
	joined := rag.JoinContext([]rag.Snippet{{Text: "first"}, {Text: "second"}})
	assert.Equal(t, "first\nsecond", joined)
}
