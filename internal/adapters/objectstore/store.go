// Package objectstore keeps property media in an S3-compatible bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"imoveis/internal/adapters/observability"
)

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL is the base used to build object URLs; defaults to the
	// endpoint followed by the bucket.
	PublicURL string
}

type Store struct {
	mc     *minio.Client
	bucket string
	public string
}

func New(o Options) (*Store, error) {
	if o.Endpoint == "" || o.Bucket == "" {
		return nil, errors.New("object storage endpoint and bucket are required")
	}
	mc, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
		Region: o.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	public := o.PublicURL
	if public == "" {
		scheme := "http://"
		if o.UseSSL {
			scheme = "https://"
		}
		public = scheme + o.Endpoint + "/" + o.Bucket
	}
	return &Store{mc: mc, bucket: o.Bucket, public: strings.TrimRight(public, "/") + "/"}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context, region string) error {
	ok, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	log.Info().Str("bucket", s.bucket).Msg("creating media bucket")
	return s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region})
}

func (s *Store) URL(key string) string { return s.public + strings.TrimLeft(key, "/") }

func (s *Store) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if size <= 0 {
		size = -1
	}
	start := time.Now()
	_, err := s.mc.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	observability.ObserveExternal("objectstore", "put", statusOf(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.URL(key), nil
}

// List returns the keys stored under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	var keys []string
	for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			observability.ObserveExternal("objectstore", "list", statusOf(obj.Err), time.Since(start))
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	observability.ObserveExternal("objectstore", "list", 200, time.Since(start))
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.mc.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	observability.ObserveExternal("objectstore", "delete", statusOf(err), time.Since(start))
	return err
}

// DeletePrefix removes every object under prefix. The first failure is
// returned after the whole batch has been attempted.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	objs := make(chan minio.ObjectInfo)
	listErr := make(chan error, 1)
	go func() {
		defer close(objs)
		for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				listErr <- obj.Err
				return
			}
			select {
			case objs <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	start := time.Now()
	var first error
	for rerr := range s.mc.RemoveObjects(ctx, s.bucket, objs, minio.RemoveObjectsOptions{}) {
		log.Warn().Err(rerr.Err).Str("key", rerr.ObjectName).Msg("remove object failed")
		if first == nil {
			first = fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	select {
	case err := <-listErr:
		if first == nil {
			first = fmt.Errorf("list %s: %w", prefix, err)
		}
	default:
	}
	observability.ObserveExternal("objectstore", "delete_prefix", statusOf(first), time.Since(start))
	return first
}

// PresignUpload returns a URL the client can PUT the object to directly.
func (s *Store) PresignUpload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.mc.PresignedPutObject(ctx, s.bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func statusOf(err error) int {
	if err == nil {
		return 200
	}
	if resp := minio.ToErrorResponse(err); resp.StatusCode != 0 {
		return resp.StatusCode
	}
	return 0
}
