// Package storage pushes clip artifacts to a Cloudflare R2 bucket through
// the S3-compatible API.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// clipContentType is the fixed MIME type for uploaded clips.
const clipContentType = "audio/mpeg"

// Config holds the R2 connection settings.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// R2 is an object-store client bound to one bucket. The underlying S3 client
// maintains its own connection pool and is safe for concurrent use.
type R2 struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

// New builds an R2 client from cfg. optFns are forwarded to the S3 client
// constructor (tests use this to enable path-style addressing).
func New(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*R2, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	optFns = append([]func(*s3.Options){func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	}}, optFns...)

	return &R2{
		client:   s3.NewFromConfig(awsCfg, optFns...),
		bucket:   cfg.Bucket,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
	}, nil
}

// Upload reads the file at path fully into memory and writes it to the bucket
// under key with the fixed audio content type. An empty file is rejected
// before any network call. On success it returns the public URL of the
// object.
func (r *R2) Upload(ctx context.Context, key, path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if len(buf) == 0 {
		return "", fmt.Errorf("upload %s: file buffer is empty: %s", key, path)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf),
		ContentType: aws.String(clipContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return r.PublicURL(key), nil
}

// Exists reports whether an object with the given key is present in the
// bucket. A missing object is (false, nil); any other failure propagates.
func (r *R2) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", key, err)
	}
	return true, nil
}

// PublicURL returns the deterministic public URL for a key.
func (r *R2) PublicURL(key string) string {
	return r.endpoint + "/" + key
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
