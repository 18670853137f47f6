// Package stores selects the configured persistence backends from the
// environment.
package stores

import (
	"context"
	"os"

	"moodboard/core"
	"moodboard/stores/aws"
	"moodboard/stores/filesystem"
	"moodboard/stores/memory"
	"moodboard/stores/postgres"
	"moodboard/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetStore returns the moodboard store named by STORAGE_TYPE:
// "filesystem", "sqlite", "postgres" or the in-memory default.
func GetStore() (core.MoodboardStore, error) {
	storageType := os.Getenv("STORAGE_TYPE")

	fields := logrus.Fields{"storageType": storageType}

	var (
		store core.MoodboardStore
		err   error
	)
	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		fields["basePath"] = basePath
		store, err = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "moodboard.db"
		}
		fields["dataSourceName"] = dataSourceName
		store, err = sqlite.NewStore(dataSourceName)
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			logrus.Fatal("DATABASE_URL environment variable must be set for postgres storage type")
		}
		store, err = postgres.NewStore(dsn)
	default:
		fields["storageType"] = "in-memory"
		store = memory.NewStore()
	}
	if err != nil {
		return nil, err
	}
	logrus.WithFields(fields).Info("Using moodboard storage")
	return store, nil
}

// GetBlobStore returns the upload store named by BLOB_STORAGE_TYPE:
// "filesystem", "s3" or the in-memory default.
func GetBlobStore(ctx context.Context) (core.BlobStore, error) {
	storageType := os.Getenv("BLOB_STORAGE_TYPE")

	fields := logrus.Fields{"blobStorageType": storageType}

	var (
		store core.BlobStore
		err   error
	)
	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		fields["basePath"] = basePath
		store, err = filesystem.NewBlobStore(basePath)
	case "s3":
		bucket := os.Getenv("S3_BUCKET_NAME")
		if bucket == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 blob storage")
		}
		baseURL := os.Getenv("S3_PUBLIC_BASE_URL")
		if baseURL == "" {
			logrus.Fatal("S3_PUBLIC_BASE_URL environment variable must be set for s3 blob storage")
		}
		fields["bucket"] = bucket
		store, err = aws.NewBlobStore(ctx, bucket, baseURL)
	default:
		fields["blobStorageType"] = "in-memory"
		store = memory.NewBlobStore()
	}
	if err != nil {
		return nil, err
	}
	logrus.WithFields(fields).Info("Using blob storage")
	return store, nil
}
