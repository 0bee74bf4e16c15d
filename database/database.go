// Package database selects and connects a metadata backend: DynamoDB for
// deployment, SQLite for local development.
package database

import (
	"context"
	"database/sql"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	_ "modernc.org/sqlite" // SQLite driver

	"catphotos"
	"catphotos/database/dynamo"
	"catphotos/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Backend specifies the backend type: "dynamo" or "sqlite"
	Backend string
	// Table is the name of the metadata table
	Table string
	// Region is the AWS region for the dynamo backend
	Region string
	// DSN is the SQLite data source name for the sqlite backend
	DSN string
}

// Connect establishes a connection to the configured backend and returns a
// MetadataRepo. The returned cleanup function should be called to close the
// connection.
func Connect(ctx context.Context, cfg Config) (catphotos.MetadataRepo, func(), error) {
	switch cfg.Backend {
	case "dynamo":
		return connectDynamo(ctx, cfg)
	case "sqlite":
		return connectSQLite(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database backend: %s", cfg.Backend)
	}
}

func connectDynamo(ctx context.Context, cfg Config) (catphotos.MetadataRepo, func(), error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config: %w", err)
	}

	repo, err := dynamo.NewRepo(dynamodb.NewFromConfig(awsCfg), cfg.Table)
	if err != nil {
		return nil, nil, fmt.Errorf("create dynamo repo: %w", err)
	}

	return repo, func() {}, nil
}

func connectSQLite(ctx context.Context, cfg Config) (catphotos.MetadataRepo, func(), error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = sqlite.Migrate(ctx, db, cfg.Table); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	repo, err := sqlite.NewRepo(db, cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create sqlite repo: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}
	return repo, cleanup, nil
}
