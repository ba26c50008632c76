package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cassette/config"
	"cassette/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	bucketName  string
)

// InitMinio initializes the MinIO client and ensures the bucket
// exists.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created object storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	bucketName = cfg.MinioBucket
	logger.Info("object storage initialized", logger.String("endpoint", cfg.MinioEndpoint))
	return nil
}

// upload stores an object under a random key below prefix, keeping the
// original file extension. Random keys make collisions between equal
// filenames impossible.
func upload(ctx context.Context, prefix, filename, contentType string, reader io.Reader, size int64) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}

	objectName := prefix + "/" + uuid.NewString() + path.Ext(filename)
	_, err := minioClient.PutObject(ctx, bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectName, err)
	}
	return objectName, nil
}

// UploadAudio stores a song's audio stream and returns the object key.
func UploadAudio(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (string, error) {
	return upload(ctx, "audio", filename, contentType, reader, size)
}

// UploadCover stores a cover image and returns the object key.
func UploadCover(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (string, error) {
	return upload(ctx, "covers", filename, contentType, reader, size)
}

// UploadProfilePic stores a profile picture and returns the object key.
func UploadProfilePic(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (string, error) {
	return upload(ctx, "profiles", filename, contentType, reader, size)
}

// GetObject opens an object for streaming.
func GetObject(ctx context.Context, objectName string) (*minio.Object, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}
	object, err := minioClient.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectName, err)
	}
	return object, nil
}

// RemoveObject deletes an object; missing objects are not an error.
func RemoveObject(ctx context.Context, objectName string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if objectName == "" {
		return nil
	}
	if err := minioClient.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectName, err)
	}
	return nil
}
