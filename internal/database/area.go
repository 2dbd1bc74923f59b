package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sidememo/sidememo/internal/config"
	"github.com/sidememo/sidememo/internal/memo/repository"
	"github.com/sidememo/sidememo/pkg/logger"
)

// Area is the opened storage area plus the connections behind it.
type Area struct {
	repository.Area
	Backend string
	// Redis is set for the redis backend so other features can share the client.
	Redis  *redis.Client
	closer []func()
}

// Close releases every connection opened for the area.
func (a *Area) Close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		a.closer[i]()
	}
	a.closer = nil
}

// OpenArea connects the storage backend selected by cfg.Storage.Backend.
func OpenArea(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Area, error) {
	a := &Area{Backend: cfg.Storage.Backend}
	switch cfg.Storage.Backend {
	case "memory":
		a.Area = repository.NewMemoryRepo()
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr(), err)
		}
		a.Area = repository.NewRedisRepo(client, cfg.Redis.Prefix)
		a.Redis = client
		a.closer = append(a.closer, func() { _ = client.Close() })
	case "mongo":
		client, err := ConnectMongoRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, log)
		if err != nil {
			return nil, err
		}
		col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		a.Area = repository.NewMongoRepo(col)
		a.closer = append(a.closer, func() { _ = client.Disconnect(context.Background()) })
	case "minio":
		repo, err := repository.NewMinIORepo(&repository.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
			Prefix:    cfg.MinIO.Prefix,
		})
		if err != nil {
			return nil, err
		}
		a.Area = repo
	case "postgres":
		db, err := OpenPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.Timeout)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewPostgresRepo(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.Area = repo
		a.closer = append(a.closer, func() { _ = db.Close() })
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	log.Infof("storage area ready: backend=%s key=%s", a.Backend, cfg.Storage.Key)
	return a, nil
}
