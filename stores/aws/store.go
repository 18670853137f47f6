// Package aws stores uploaded images in S3 and hands back public
// object URLs. Credentials and region come from the default SDK chain.
package aws

import (
	"context"
	"fmt"
	"io"
	"path"

	"moodboard/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

type s3BlobStore struct {
	client *s3.Client
	bucket string
	// baseURL is the public prefix objects are reachable under, e.g.
	// https://my-bucket.s3.eu-west-1.amazonaws.com or a CDN host.
	baseURL string
}

// NewBlobStore creates an S3-backed blob store. baseURL must serve the
// bucket's objects publicly.
func NewBlobStore(ctx context.Context, bucket, baseURL string) (*s3BlobStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &s3BlobStore{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

func objectKey(userID, filename string) (string, error) {
	// Keys are flat per user; a filename that is itself a path would
	// escape the user's prefix.
	if filename == "" || path.Base(filename) != filename || filename == "." || filename == ".." {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return path.Join("uploads", userID, filename), nil
}

var _ core.BlobStore = (*s3BlobStore)(nil)

func (s *s3BlobStore) Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (string, error) {
	key, err := objectKey(userID, filename)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"key":     key,
	}).Info("Blob uploaded to S3")
	return s.baseURL + "/" + key, nil
}
