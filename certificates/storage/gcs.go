package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStorage uploads artifacts to a Cloud Storage bucket.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

func NewGCSStorage(client *storage.Client, bucket string) *GCSStorage {
	return &GCSStorage{
		client: client,
		bucket: bucket,
	}
}

// Put writes data under key and returns its public url. Writing the same key
// again replaces the object.
func (s *GCSStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(key)
	objWriter := obj.NewWriter(ctx)
	objWriter.ContentType = contentType
	objWriter.CacheControl = "public, max-age=86400"

	if _, err := objWriter.Write(data); err != nil {
		_ = objWriter.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", s.bucket, key, err)
	}

	if err := objWriter.Close(); err != nil {
		return "", fmt.Errorf("close gs://%s/%s: %w", s.bucket, key, err)
	}

	return fmt.Sprintf("%s/%s/%s", gcsPublicHost, s.bucket, key), nil
}
