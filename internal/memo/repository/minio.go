package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// MinIORepo implements Area with one object per key.
type MinIORepo struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIORepo creates the client and ensures the bucket exists.
func NewMinIORepo(cfg *MinIOConfig) (*MinIORepo, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	r := &MinIORepo{client: mc, bucket: cfg.Bucket, prefix: cfg.Prefix}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, r.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return r, nil
}

func (r *MinIORepo) object(k string) string {
	return r.prefix + k + ".json"
}

func (r *MinIORepo) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		obj, err := r.client.GetObject(ctx, r.bucket, r.object(k), minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("minio get %s: %w", k, err)
		}
		b, err := io.ReadAll(obj)
		obj.Close()
		if err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				continue
			}
			return nil, fmt.Errorf("minio read %s: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}

func (r *MinIORepo) Set(ctx context.Context, items map[string][]byte) error {
	for k, v := range items {
		_, err := r.client.PutObject(ctx, r.bucket, r.object(k), bytes.NewReader(v), int64(len(v)),
			minio.PutObjectOptions{ContentType: "application/json"})
		if err != nil {
			return fmt.Errorf("minio put %s: %w", k, err)
		}
	}
	return nil
}
