package badger

import (
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/respondeo/internal/models"
)

func newTestStorage(t *testing.T) *QueryLogStorage {
	t.Helper()
	dir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatalf("Failed to open badger store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store, logger: arbor.NewLogger()}
	return NewQueryLogStorage(db, arbor.NewLogger()).(*QueryLogStorage)
}

func testRecord(id string, createdAt time.Time) *models.QueryRecord {
	return &models.QueryRecord{
		ID:          id,
		DocumentURL: "https://example.com/policy.pdf",
		Kind:        models.KindPDF,
		ChunkCount:  11,
		Backend:     "local",
		Questions: []models.QuestionTiming{
			{Question: "What is the grace period?", Answer: "Thirty days.", Retrieval: 20 * time.Millisecond},
		},
		Duration:  3 * time.Second,
		CreatedAt: createdAt,
	}
}

func TestSaveAndGetRecord(t *testing.T) {
	storage := newTestStorage(t)

	record := testRecord("run-1", time.Now().UTC())
	if err := storage.SaveRecord(record); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	loaded, err := storage.GetRecord("run-1")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if loaded.DocumentURL != record.DocumentURL {
		t.Errorf("document URL mismatch: %q", loaded.DocumentURL)
	}
	if loaded.ChunkCount != 11 || loaded.Backend != "local" {
		t.Errorf("record fields not round-tripped: %+v", loaded)
	}
	if len(loaded.Questions) != 1 || loaded.Questions[0].Answer != "Thirty days." {
		t.Errorf("question timings not round-tripped: %+v", loaded.Questions)
	}
}

func TestSaveRecordUpsert(t *testing.T) {
	storage := newTestStorage(t)

	record := testRecord("run-1", time.Now().UTC())
	if err := storage.SaveRecord(record); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	record.ChunkCount = 20
	if err := storage.SaveRecord(record); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := storage.GetRecord("run-1")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if loaded.ChunkCount != 20 {
		t.Errorf("upsert did not replace record: chunk count %d", loaded.ChunkCount)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	storage := newTestStorage(t)

	if _, err := storage.GetRecord("missing"); err == nil {
		t.Fatal("expected error for missing record")
	}
}

func TestListRecordsNewestFirst(t *testing.T) {
	storage := newTestStorage(t)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		record := testRecord(
			string(rune('a'+i)),
			base.Add(time.Duration(i)*time.Minute),
		)
		if err := storage.SaveRecord(record); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	records, err := storage.ListRecords(3)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].CreatedAt.After(records[i-1].CreatedAt) {
			t.Errorf("records not sorted newest first at position %d", i)
		}
	}
}
