package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/models"
)

type mockEmbeddings struct {
	queryCalls int
	embedQuery func(ctx context.Context, query string) ([]float32, error)
}

func (m *mockEmbeddings) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

func (m *mockEmbeddings) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.queryCalls++
	return m.embedQuery(ctx, query)
}

func (m *mockEmbeddings) Dimension() int { return 3 }

type mockIndex struct {
	queryCalls int
	gotVector  []float32
	gotK       int
	query      func(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error)
}

func (m *mockIndex) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	return nil
}

func (m *mockIndex) Query(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error) {
	m.queryCalls++
	m.gotVector = vector
	m.gotK = k
	return m.query(ctx, vector, k)
}

func (m *mockIndex) Clear(ctx context.Context) error { return nil }

func (m *mockIndex) Backend() string { return "local" }

func TestRetrievePassesVectorAndTopK(t *testing.T) {
	embeddings := &mockEmbeddings{
		embedQuery: func(ctx context.Context, query string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		},
	}
	index := &mockIndex{
		query: func(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error) {
			return []models.RetrievedChunk{
				{Chunk: models.Chunk{DocumentID: "doc-1", Seq: 0, Text: "alpha"}, Score: 0.9},
			}, nil
		},
	}

	service := NewService(embeddings, 5, arbor.NewLogger())
	retrieved, err := service.Retrieve(context.Background(), index, "what is alpha?")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(retrieved) != 1 || retrieved[0].Seq != 0 {
		t.Fatalf("unexpected retrieval result: %+v", retrieved)
	}
	if index.gotK != 5 {
		t.Errorf("expected top-k 5, index queried with %d", index.gotK)
	}
	if len(index.gotVector) != 3 || index.gotVector[0] != 1 {
		t.Errorf("query vector not passed through: %v", index.gotVector)
	}
}

func TestRetrieveEmbedsQueryExactlyOnce(t *testing.T) {
	embeddings := &mockEmbeddings{
		embedQuery: func(ctx context.Context, query string) ([]float32, error) {
			return nil, errors.New("Error 503: service unavailable")
		},
	}
	index := &mockIndex{}

	service := NewService(embeddings, 5, arbor.NewLogger())
	_, err := service.Retrieve(context.Background(), index, "what is alpha?")
	if err == nil {
		t.Fatal("expected error when embedding fails")
	}

	// The embedding service carries the retry policy itself; the retriever
	// must not stack another round of attempts on top.
	if embeddings.queryCalls != 1 {
		t.Errorf("expected exactly 1 EmbedQuery call, got %d", embeddings.queryCalls)
	}
	if index.queryCalls != 0 {
		t.Errorf("index must not be queried after a failed embedding, got %d calls", index.queryCalls)
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	service := NewService(&mockEmbeddings{}, 5, arbor.NewLogger())
	if _, err := service.Retrieve(context.Background(), &mockIndex{}, ""); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestRetrievePropagatesIndexError(t *testing.T) {
	embeddings := &mockEmbeddings{
		embedQuery: func(ctx context.Context, query string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		},
	}
	index := &mockIndex{
		query: func(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error) {
			return nil, models.ErrIndexBackend
		},
	}

	service := NewService(embeddings, 5, arbor.NewLogger())
	_, err := service.Retrieve(context.Background(), index, "what is alpha?")
	if !errors.Is(err, models.ErrIndexBackend) {
		t.Fatalf("expected ErrIndexBackend, got %v", err)
	}
}
