package cache

import (
	"context"
	"fmt"
	"log/slog"

	"fridgefeast/internal/config"
)

func MakeCache(ctx context.Context, cfg *config.Config) (ListCache, error) {
	switch cfg.Cache.Backend {
	case "memory":
		slog.InfoContext(ctx, "using in-memory cache")
		return NewInMemoryCache(), nil
	case "azblob":
		client, err := NewBlobClient(cfg.Azure)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "using Azure Blob Storage for cache", "account", cfg.Azure.AccountName, "container", cfg.Cache.Container)
		return NewBlobCache(client, cfg.Cache.Container), nil
	case "sqlite":
		slog.InfoContext(ctx, "using sqlite cache", "path", cfg.Cache.SQLitePath)
		return NewSQLiteCache(cfg.Cache.SQLitePath)
	case "postgres":
		slog.InfoContext(ctx, "using postgres cache")
		return NewPostgresCache(ctx, cfg.Cache.DSN)
	case "s3":
		client, err := NewS3Client(ctx, cfg.Cache.S3)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "using S3 cache", "bucket", cfg.Cache.S3.Bucket, "endpoint", cfg.Cache.S3.Endpoint)
		return NewS3Cache(client, cfg.Cache.S3.Bucket), nil
	case "file", "":
		slog.InfoContext(ctx, "using file cache", "dir", cfg.Cache.Dir)
		return NewFileCache(cfg.Cache.Dir), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
