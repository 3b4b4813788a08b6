package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// LocalIndex is the in-process vector backend. Chunks live in a chromem
// collection scoped to the run namespace; nothing touches disk and the index
// dies with the run.
type LocalIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	namespace  string
	dimension  int
	logger     arbor.ILogger
}

var _ interfaces.VectorIndex = (*LocalIndex)(nil)

func NewLocalIndex(namespace string, dimension int, logger arbor.ILogger) (*LocalIndex, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection(namespace, map[string]string{"hnsw:space": "cosine"}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create local collection: %v", models.ErrIndexBackend, err)
	}

	return &LocalIndex{
		db:         db,
		collection: collection,
		namespace:  namespace,
		dimension:  dimension,
		logger:     logger,
	}, nil
}

func (idx *LocalIndex) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", models.ErrIndexBackend, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	metadatas := make([]map[string]string, len(chunks))
	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != idx.dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, index expects %d",
				models.ErrIndexBackend, i, len(vectors[i]), idx.dimension)
		}
		ids[i] = fmt.Sprintf("%s-%d", chunk.DocumentID, chunk.Seq)
		metadatas[i] = map[string]string{
			"document_id": chunk.DocumentID,
			"seq":         strconv.Itoa(chunk.Seq),
			"start":       strconv.Itoa(chunk.Start),
			"end":         strconv.Itoa(chunk.End),
		}
		contents[i] = chunk.Text
	}

	if err := idx.collection.Add(ctx, ids, vectors, metadatas, contents); err != nil {
		return fmt.Errorf("%w: add to local index: %v", models.ErrIndexBackend, err)
	}

	idx.logger.Debug().
		Str("namespace", idx.namespace).
		Int("chunks", len(chunks)).
		Msg("Chunks indexed locally")
	return nil
}

func (idx *LocalIndex) Query(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index expects %d",
			models.ErrIndexBackend, len(vector), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	count := idx.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := idx.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: local query: %v", models.ErrIndexBackend, err)
	}

	retrieved := make([]models.RetrievedChunk, 0, len(results))
	for _, result := range results {
		chunk := models.Chunk{
			DocumentID: result.Metadata["document_id"],
			Text:       result.Content,
		}
		chunk.Seq, _ = strconv.Atoi(result.Metadata["seq"])
		chunk.Start, _ = strconv.Atoi(result.Metadata["start"])
		chunk.End, _ = strconv.Atoi(result.Metadata["end"])
		retrieved = append(retrieved, models.RetrievedChunk{
			Chunk: chunk,
			Score: float64(result.Similarity),
		})
	}

	sortRetrieved(retrieved)
	return retrieved, nil
}

func (idx *LocalIndex) Clear(ctx context.Context) error {
	if err := idx.db.DeleteCollection(idx.namespace); err != nil {
		return fmt.Errorf("%w: clear local index: %v", models.ErrIndexBackend, err)
	}
	return nil
}

func (idx *LocalIndex) Backend() string {
	return "local"
}

// sortRetrieved orders results by descending similarity, breaking ties by
// ascending sequence index so equal-score chunks rank identically on every
// backend.
func sortRetrieved(retrieved []models.RetrievedChunk) {
	sort.SliceStable(retrieved, func(i, j int) bool {
		if retrieved[i].Score != retrieved[j].Score {
			return retrieved[i].Score > retrieved[j].Score
		}
		return retrieved[i].Seq < retrieved[j].Seq
	})
}
