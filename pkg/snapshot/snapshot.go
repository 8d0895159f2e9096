// Package snapshot uploads point-in-time copies of the dataset document file
// to S3-compatible object storage. The document store remains authoritative;
// snapshots exist so an operator can recover the registry after losing the
// host, not as a second source of truth.
package snapshot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// objectTimeLayout names snapshot objects so lexicographic order is
// chronological order.
const objectTimeLayout = "20060102T150405Z"

// Config describes the S3 target. Endpoint and UsePathStyle support
// S3-compatible servers such as MinIO.
type Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	Prefix       string
}

// Uploader writes document snapshots into one bucket under a fixed prefix.
type Uploader struct {
	client *s3.Client
	bucket string
	prefix string
	log    *logrus.Logger

	now func() time.Time
}

// NewUploader creates the S3 client and ensures the target bucket exists.
func NewUploader(ctx context.Context, cfg Config, log *logrus.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("snapshot bucket is required")
	}
	if log == nil {
		log = logrus.New()
	}

	var awsConfig aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		// Static credentials, for MinIO or AWS with explicit keys.
		awsConfig, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		// Default credential chain: IAM roles, env vars, shared config.
		awsConfig, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	if err := createBucketIfNotExists(ctx, client, cfg.Bucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log,
		now:    time.Now,
	}, nil
}

// Upload copies the document file at path to the bucket and returns the
// object key. The object carries a SHA256 checksum in its metadata so a
// restore can verify integrity.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document file: %w", err)
	}

	hash := sha256.Sum256(data)
	checksum := hex.EncodeToString(hash[:])
	key := u.objectKey(u.now().UTC())

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"checksum-sha256": checksum,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	u.log.WithFields(logrus.Fields{
		"bucket": u.bucket,
		"key":    key,
		"bytes":  len(data),
	}).Info("Snapshot uploaded")
	return key, nil
}

// Prune deletes all but the newest keep snapshots under the prefix and
// returns how many were removed.
func (u *Uploader) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(u.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(u.bucket),
		Prefix: aws.String(u.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	deleted := 0
	for _, key := range staleKeys(keys, keep) {
		_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete snapshot %s: %w", key, err)
		}
		deleted++
	}

	if deleted > 0 {
		u.log.WithFields(logrus.Fields{
			"bucket":  u.bucket,
			"deleted": deleted,
			"kept":    keep,
		}).Info("Old snapshots pruned")
	}
	return deleted, nil
}

func (u *Uploader) objectKey(t time.Time) string {
	name := fmt.Sprintf("datasets-%s.json", t.Format(objectTimeLayout))
	if u.prefix == "" {
		return name
	}
	return u.prefix + "/" + name
}

// staleKeys returns the keys to delete so that only the keep
// lexicographically-largest (newest) remain.
func staleKeys(keys []string, keep int) []string {
	if len(keys) <= keep {
		return nil
	}
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	return sorted[:len(sorted)-keep]
}

func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil && !isBucketAlreadyExistsError(err) {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func isBucketAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "BucketAlreadyExists") || strings.Contains(msg, "BucketAlreadyOwnedByYou")
}
