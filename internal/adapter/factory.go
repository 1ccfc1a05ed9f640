package adapter

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// New opens the loader for the configured source type.
func New(ctx context.Context, cfg SourceConfig, logger *zap.Logger) (Loader, error) {
	switch cfg.Type {
	case SourceCSV, SourceParquet:
		return NewFileLoader(ctx, cfg, logger)
	case SourceMySQL:
		return NewMySQLLoader(ctx, cfg, logger)
	case SourceSQLServer:
		return NewSQLServerLoader(ctx, cfg, logger)
	case SourcePostgres:
		return NewPostgresLoader(ctx, cfg, logger)
	case SourceSQLite:
		return NewSQLiteLoader(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported source type: %q", cfg.Type)
	}
}

// Load opens the source, reads every selected table and closes the source.
func Load(ctx context.Context, cfg SourceConfig, logger *zap.Logger) (map[string]*Table, error) {
	loader, err := New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer loader.Close()
	return loader.LoadTables(ctx)
}
