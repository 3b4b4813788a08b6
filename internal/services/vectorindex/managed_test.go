package vectorindex

import (
	"context"
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/ternarybob/arbor"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func dryRunIndex(t *testing.T) *ManagedIndex {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("gorm.Open failed: %v", err)
	}
	return &ManagedIndex{
		db:        db,
		table:     "chunk_embeddings",
		namespace: "run-1",
		dimension: 3,
		logger:    arbor.NewLogger(),
	}
}

func TestManagedSimilarityQueryOrdersByDistance(t *testing.T) {
	index := dryRunIndex(t)

	var rows []chunkRow
	stmt := index.similarityQuery(context.Background(), pgvector.NewVector([]float32{1, 0, 0}), 5).Find(&rows)
	if stmt.Error != nil {
		t.Fatalf("statement build failed: %v", stmt.Error)
	}

	sql := stmt.Statement.SQL.String()
	if !strings.Contains(sql, "ORDER BY embedding <=> ?, seq ASC") {
		t.Fatalf("generated SQL is missing the distance ordering: %q", sql)
	}
	if !strings.Contains(sql, "LIMIT") {
		t.Fatalf("generated SQL is missing the row limit: %q", sql)
	}
	if strings.Index(sql, "ORDER BY") > strings.Index(sql, "LIMIT") {
		t.Fatalf("LIMIT must apply to ordered rows: %q", sql)
	}
}

func TestManagedSimilarityQueryScopesNamespace(t *testing.T) {
	index := dryRunIndex(t)

	var rows []chunkRow
	stmt := index.similarityQuery(context.Background(), pgvector.NewVector([]float32{1, 0, 0}), 5).Find(&rows)
	if stmt.Error != nil {
		t.Fatalf("statement build failed: %v", stmt.Error)
	}

	sql := stmt.Statement.SQL.String()
	if !strings.Contains(sql, "namespace = ?") {
		t.Fatalf("generated SQL is missing the namespace filter: %q", sql)
	}

	found := false
	for _, v := range stmt.Statement.Vars {
		if s, ok := v.(string); ok && s == "run-1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("namespace value not bound in statement vars: %v", stmt.Statement.Vars)
	}
}
