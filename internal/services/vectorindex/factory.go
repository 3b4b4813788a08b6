package vectorindex

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// Provider builds per-run vector indexes. When a PostgreSQL DSN is
// configured the managed backend is preferred; any failure reaching or
// preparing it degrades to the local backend without surfacing an error,
// since retrieval quality is identical and only persistence differs.
type Provider struct {
	db     *gorm.DB
	table  string
	logger arbor.ILogger
}

var _ interfaces.IndexProvider = (*Provider)(nil)

func NewProvider(config *common.Config, logger arbor.ILogger) *Provider {
	provider := &Provider{
		table:  config.Index.Postgres.Table,
		logger: logger,
	}

	dsn := config.Index.Postgres.DSN
	if dsn == "" {
		logger.Info().Msg("No PostgreSQL DSN configured, vector indexes will use the local backend")
		return provider
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("Managed index backend unavailable, falling back to local")
		return provider
	}

	provider.db = db
	logger.Info().Str("table", provider.table).Msg("Managed index backend connected")
	return provider
}

// NewIndex returns a managed index when the backend connected at startup,
// otherwise a local one. Managed setup failures at this point also fall back
// rather than failing the run.
func (p *Provider) NewIndex(ctx context.Context, namespace string, dimension int) (interfaces.VectorIndex, error) {
	if namespace == "" {
		return nil, fmt.Errorf("index namespace must not be empty")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dimension)
	}

	if p.db != nil {
		index, err := NewManagedIndex(ctx, p.db, p.table, namespace, dimension, p.logger)
		if err == nil {
			return index, nil
		}
		p.logger.Warn().
			Err(err).
			Str("namespace", namespace).
			Msg("Managed index setup failed, falling back to local")
	}

	return NewLocalIndex(namespace, dimension, p.logger)
}

// Close releases the managed backend connection if one was established.
func (p *Provider) Close() error {
	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
