package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Store. *s3.Client
// satisfies it; tests substitute an in-memory fake.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Store keeps one container object per record under a key prefix.
//
// Example usage:
//
//	client := capture.NewS3Client(capture.S3ClientOptions{Region: "eu-west-1"})
//	store := capture.NewS3Store(client, "wire-captures", "eu/", capture.CompressionZstd)
type S3Store struct {
	client      S3API
	bucket      string
	prefix      string
	compression Compression
}

// NewS3Store creates an S3-backed store.
//
// Parameters:
//   - client: S3 client, usually from NewS3Client
//   - bucket: bucket name
//   - prefix: key prefix for records (e.g. "captures/eu/")
//   - c: body compression for new records
func NewS3Store(client S3API, bucket, prefix string, c Compression) *S3Store {
	return &S3Store{
		client:      client,
		bucket:      bucket,
		prefix:      prefix,
		compression: c,
	}
}

// Put uploads r. Objects are immutable once written, so an existing key
// is overwritten with identical content rather than checked first.
func (s *S3Store) Put(ctx context.Context, r *Record) (string, error) {
	key := r.Key()
	data, err := Marshal(r, s.compression)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-gamewire-capture"),
		Metadata: map[string]string{
			"opcode":      r.Opcode.String(),
			"compression": s.compression.String(),
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("capture: s3 put %s: %w", key, err)
	}
	return key, nil
}

func (s *S3Store) Get(ctx context.Context, key string) (*Record, error) {
	if !validKey(key) {
		return nil, ErrNotFound
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("capture: s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, int64(containerHeaderSize+maxBodySize)+1))
	if err != nil {
		return nil, fmt.Errorf("capture: s3 read %s: %w", key, err)
	}
	return load(key, data)
}

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture: s3 list: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if !strings.HasSuffix(name, fileExt) {
				continue
			}
			if key := strings.TrimSuffix(name, fileExt); validKey(key) {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3Store) objectKey(key string) string {
	return s.prefix + key + fileExt
}

// S3ClientOptions configures NewS3Client.
type S3ClientOptions struct {
	Region string

	// Endpoint overrides the AWS endpoint, for MinIO or other
	// S3-compatible servers.
	Endpoint string

	UsePathStyle bool
}

// NewS3Client builds an S3 client. Credentials come from the standard
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// variables; without them requests are sent anonymously.
func NewS3Client(opts S3ClientOptions) *s3.Client {
	o := s3.Options{
		Region:       opts.Region,
		Credentials:  envCredentials(),
		UsePathStyle: opts.UsePathStyle,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return s3.New(o)
}

func envCredentials() aws.CredentialsProvider {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "environment",
		}, nil
	}))
}
