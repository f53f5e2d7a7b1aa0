package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/Liquid9001/WeatherImageGeneratorEB/pkg/client/s3"
)

// ErrObjectNotFound is returned by Download for keys that do not exist.
var ErrObjectNotFound = errors.New("object not found")

// S3Repo exposes the object-store operations the pipeline needs: blind and
// first-writer-wins uploads, reads, prefix listing and presigned read URLs.
type S3Repo struct {
	StorageS3 *s3.StorageS3

	// PublicRead makes URLFor return direct URLs instead of presigned ones.
	PublicRead bool
}

func NewS3Repo(storageS3 *s3.StorageS3) *S3Repo {
	return &S3Repo{StorageS3: storageS3}
}

func (s *S3Repo) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return fmt.Errorf("s3 client not initialized")
	}

	reader := bytes.NewReader(data)

	_, err := s.StorageS3.Client.PutObject(
		ctx,
		s.StorageS3.Bucket,
		key,
		reader,
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}

	return nil
}

// UploadIfAbsent writes only when the key does not exist yet. The existence
// check and the write are two calls, so two racing creators can still both
// write; the first durable write wins for readers in between.
func (s *S3Repo) UploadIfAbsent(ctx context.Context, key string, data []byte, contentType string) (bool, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.Upload(ctx, key, data, contentType); err != nil {
		return false, err
	}
	return true, nil
}

func (s *S3Repo) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.StorageS3.Client.GetObject(ctx, s.StorageS3.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("s3 read object: %w", err)
	}
	return data, nil
}

func (s *S3Repo) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.StorageS3.Client.StatObject(ctx, s.StorageS3.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("s3 stat object: %w", err)
	}
	return true, nil
}

func (s *S3Repo) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.StorageS3.Client.ListObjects(ctx, s.StorageS3.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("s3 list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// URLFor returns a read URL for the key: direct when the bucket is public,
// presigned for the given expiry otherwise.
func (s *S3Repo) URLFor(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if s.PublicRead {
		return fmt.Sprintf("http://%s/%s/%s", s.StorageS3.Endpoint, s.StorageS3.Bucket, key), nil
	}

	reqParams := url.Values{}
	presignedURL, err := s.StorageS3.Client.PresignedGetObject(ctx, s.StorageS3.Bucket, key, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("presigned get object: %w", err)
	}
	return presignedURL.String(), nil
}
