package internal_storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
)

type s3BlobStore struct {
	client *s3.S3
	bucket string
	prefix string
	logger commons.Logger
}

// NewS3BlobStore builds the S3-backed blob store for WAV responses. An
// explicit endpoint (minio and friends) is honored for development.
func NewS3BlobStore(cfg *config.AppConfig, logger commons.Logger) (BlobStore, error) {
	store := cfg.AudioStoreConfig

	awsCfg := &aws.Config{
		Region: aws.String(store.Region),
	}
	if store.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(store.AccessKey, store.SecretKey, "")
	}
	if store.Endpoint != "" {
		awsCfg.Endpoint = aws.String(store.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	logger.Infof("audio store ready: bucket=%s prefix=%s region=%s", store.Bucket, store.Prefix, store.Region)
	return &s3BlobStore{
		client: s3.New(sess),
		bucket: store.Bucket,
		prefix: store.Prefix,
		logger: logger,
	}, nil
}

func (s *s3BlobStore) key(key string) string {
	return path.Join(s.prefix, key)
}

func (s *s3BlobStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	fullKey := s.key(key)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put %s to s3: %w", fullKey, err)
	}

	s.logger.Debugf("stored audio blob: key=%s bytes=%d", fullKey, len(data))
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, fullKey), nil
}

func (s *s3BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	fullKey := s.key(key)
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from s3: %w", fullKey, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s body: %w", fullKey, err)
	}
	return data, nil
}
