package utils

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Storage handles saving and deleting files on Cloudflare R2.
type R2Storage struct {
	client     *s3.Client
	bucketName string
	publicURL  string
}

// NewR2Storage creates an R2Storage client.
// endpoint should be "https://<account-id>.r2.cloudflarestorage.com".
// publicURL is the bucket's public domain that stored paths are built from.
func NewR2Storage(accessKeyID, secretAccessKey, endpoint, bucketName, publicURL string) *R2Storage {
	cfg := aws.Config{
		Region: "auto",
		Credentials: credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"", // session token — not used for R2
		),
		BaseEndpoint: aws.String(endpoint),
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// R2 requires path-style addressing
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:     client,
		bucketName: bucketName,
		publicURL:  publicURL,
	}
}

func (rs *R2Storage) SaveFile(ctx context.Context, key, contentType string, reader io.Reader) error {
	_, err := rs.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(rs.bucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to R2: %w", err)
	}
	return nil
}

// DeleteFile removes the object with the given key from R2.
// S3 semantics make deleting a missing key a no-op.
func (rs *R2Storage) DeleteFile(ctx context.Context, key string) error {
	_, err := rs.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(rs.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from R2: %w", err)
	}
	return nil
}

func (rs *R2Storage) URL(key string) string {
	return rs.publicURL + "/" + key
}
