package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// QueryLogStorage implements the QueryLogStorage interface for Badger
type QueryLogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQueryLogStorage creates a new QueryLogStorage instance
func NewQueryLogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QueryLogStorage {
	return &QueryLogStorage{
		db:     db,
		logger: logger,
	}
}

func (s *QueryLogStorage) SaveRecord(record *models.QueryRecord) error {
	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save query record: %w", err)
	}
	return nil
}

func (s *QueryLogStorage) GetRecord(id string) (*models.QueryRecord, error) {
	var record models.QueryRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("query record %s not found", id)
		}
		return nil, fmt.Errorf("failed to get query record: %w", err)
	}
	return &record, nil
}

func (s *QueryLogStorage) ListRecords(limit int) ([]*models.QueryRecord, error) {
	var records []*models.QueryRecord
	query := &badgerhold.Query{}
	query = query.SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list query records: %w", err)
	}
	return records, nil
}

func (s *QueryLogStorage) Close() error {
	return s.db.Close()
}
