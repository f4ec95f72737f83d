// Package storage reads and writes whole objects addressed either by a local
// filesystem path or by an s3://bucket/key URL.
package storage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// S3Scheme prefixes object locations stored in S3.
const S3Scheme = "s3://"

var (
	// ErrNotFound is returned when the local path or the S3 object does not exist.
	ErrNotFound = errors.New("file or url does not exist")
	// ErrNoS3Client is returned for s3:// locations when the store has no client.
	ErrNoS3Client = errors.New("missing s3 client")
)

// Store reads and writes locations. The S3 client is only required for
// s3:// locations.
type Store struct {
	s3 s3iface.S3API
}

// New creates a Store. client may be nil when only local paths are used.
func New(client s3iface.S3API) *Store {
	return &Store{s3: client}
}

// IsS3 reports whether name addresses an S3 object.
func IsS3(name string) bool {
	return strings.HasPrefix(name, S3Scheme)
}

// SplitS3 returns the bucket and key of an s3:// location.
func SplitS3(name string) (bucket, key string, err error) {
	u, err := url.Parse(name)
	if err != nil {
		return "", "", errors.Wrapf(err, "parsing S3 URL %v", name)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", errors.Errorf("S3 URL %v needs a bucket and a key", name)
	}
	return u.Host, key, nil
}

// Read returns the full contents of name.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if !IsS3(name) {
		content, err := os.ReadFile(name)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ErrNotFound
			}
			return nil, errors.Wrapf(err, "reading file %v", name)
		}
		return content, nil
	}

	if s.s3 == nil {
		return nil, ErrNoS3Client
	}
	bucket, key, err := SplitS3(name)
	if err != nil {
		return nil, err
	}
	result, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey:
				return nil, ErrNotFound
			}
		}
		return nil, errors.Wrapf(err, "fetching S3 object %v", name)
	}
	defer result.Body.Close()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading S3 object %v", name)
	}
	return content, nil
}

// Write stores contents at name, replacing what was there.
func (s *Store) Write(ctx context.Context, name string, contents []byte) error {
	if !IsS3(name) {
		if err := os.WriteFile(name, contents, 0o644); err != nil {
			return errors.Wrapf(err, "writing file %v", name)
		}
		return nil
	}

	if s.s3 == nil {
		return ErrNoS3Client
	}
	bucket, key, err := SplitS3(name)
	if err != nil {
		return err
	}
	_, err = s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(contents),
		ContentLength: aws.Int64(int64(len(contents))),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return errors.Wrapf(err, "putting S3 object %v", name)
	}
	return nil
}
