package storage

import (
	"context"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"io"
)

type minioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinIO(client *minio.Client, bucket string) FileStorage {
	return &minioStorage{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket on first start.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	zerolog.Ctx(ctx).Info().Str("bucket", bucket).Msg("creating bucket")
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

func (s *minioStorage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *minioStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller starts reading.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (s *minioStorage) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
