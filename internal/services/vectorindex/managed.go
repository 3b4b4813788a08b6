package vectorindex

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/ternarybob/arbor"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// chunkRow is the persisted form of an indexed chunk. Distance is populated
// only by similarity queries and never written.
type chunkRow struct {
	ID         string          `gorm:"primaryKey"`
	Namespace  string          `gorm:"index"`
	DocumentID string
	Seq        int
	StartPos   int
	EndPos     int
	Content    string
	Embedding  pgvector.Vector `gorm:"type:vector"`
	Distance   float64         `gorm:"->;-:migration"`
}

// ManagedIndex stores vectors in PostgreSQL with the pgvector extension.
// Rows are scoped by namespace so concurrent runs sharing the table never
// see each other's chunks.
type ManagedIndex struct {
	db        *gorm.DB
	table     string
	namespace string
	dimension int
	logger    arbor.ILogger
}

var _ interfaces.VectorIndex = (*ManagedIndex)(nil)

func NewManagedIndex(ctx context.Context, db *gorm.DB, table, namespace string, dimension int, logger arbor.ILogger) (*ManagedIndex, error) {
	if err := db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("%w: enable pgvector extension: %v", models.ErrIndexBackend, err)
	}

	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		namespace TEXT NOT NULL,
		document_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		start_pos INTEGER NOT NULL,
		end_pos INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL
	)`, table, dimension)
	if err := db.WithContext(ctx).Exec(createTable).Error; err != nil {
		return nil, fmt.Errorf("%w: create index table: %v", models.ErrIndexBackend, err)
	}
	indexDDL := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_namespace_idx ON %s (namespace)", table, table)
	if err := db.WithContext(ctx).Exec(indexDDL).Error; err != nil {
		return nil, fmt.Errorf("%w: create namespace index: %v", models.ErrIndexBackend, err)
	}

	return &ManagedIndex{
		db:        db,
		table:     table,
		namespace: namespace,
		dimension: dimension,
		logger:    logger,
	}, nil
}

func (idx *ManagedIndex) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", models.ErrIndexBackend, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]chunkRow, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != idx.dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, index expects %d",
				models.ErrIndexBackend, i, len(vectors[i]), idx.dimension)
		}
		rows[i] = chunkRow{
			ID:         fmt.Sprintf("%s:%s-%d", idx.namespace, chunk.DocumentID, chunk.Seq),
			Namespace:  idx.namespace,
			DocumentID: chunk.DocumentID,
			Seq:        chunk.Seq,
			StartPos:   chunk.Start,
			EndPos:     chunk.End,
			Content:    chunk.Text,
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}

	if err := idx.db.WithContext(ctx).Table(idx.table).Save(&rows).Error; err != nil {
		return fmt.Errorf("%w: upsert into managed index: %v", models.ErrIndexBackend, err)
	}

	idx.logger.Debug().
		Str("namespace", idx.namespace).
		Int("chunks", len(rows)).
		Msg("Chunks indexed in managed backend")
	return nil
}

func (idx *ManagedIndex) Query(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index expects %d",
			models.ErrIndexBackend, len(vector), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	queryVector := pgvector.NewVector(vector)
	var rows []chunkRow
	err := idx.similarityQuery(ctx, queryVector, k).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: managed query: %v", models.ErrIndexBackend, err)
	}

	retrieved := make([]models.RetrievedChunk, 0, len(rows))
	for _, row := range rows {
		retrieved = append(retrieved, models.RetrievedChunk{
			Chunk: models.Chunk{
				DocumentID: row.DocumentID,
				Seq:        row.Seq,
				Start:      row.StartPos,
				End:        row.EndPos,
				Text:       row.Content,
			},
			// Cosine distance to similarity.
			Score: 1 - row.Distance,
		})
	}

	sortRetrieved(retrieved)
	return retrieved, nil
}

// similarityQuery builds the nearest-neighbor statement for a query vector.
// The ordering has to go through clause.OrderBy: gorm's Order only accepts
// strings and order-by clauses, so an Expr passed to it is dropped and the
// LIMIT would apply to unordered rows.
func (idx *ManagedIndex) similarityQuery(ctx context.Context, queryVector pgvector.Vector, k int) *gorm.DB {
	return idx.db.WithContext(ctx).
		Table(idx.table).
		Select("*, embedding <=> ? AS distance", queryVector).
		Where("namespace = ?", idx.namespace).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <=> ?, seq ASC", Vars: []interface{}{queryVector}},
		}).
		Limit(k)
}

func (idx *ManagedIndex) Clear(ctx context.Context) error {
	err := idx.db.WithContext(ctx).
		Table(idx.table).
		Where("namespace = ?", idx.namespace).
		Delete(&chunkRow{}).Error
	if err != nil {
		return fmt.Errorf("%w: clear managed namespace: %v", models.ErrIndexBackend, err)
	}
	return nil
}

func (idx *ManagedIndex) Backend() string {
	return "managed"
}
