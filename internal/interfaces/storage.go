package interfaces

import "github.com/ternarybob/respondeo/internal/models"

// QueryLogStorage persists pipeline run records. It is an optional sink, not
// authoritative state: callers log storage failures and continue.
type QueryLogStorage interface {
	SaveRecord(record *models.QueryRecord) error
	GetRecord(id string) (*models.QueryRecord, error)
	ListRecords(limit int) ([]*models.QueryRecord, error)
	Close() error
}
