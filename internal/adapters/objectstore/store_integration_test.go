//go:build integration || !unit

package objectstore_test

import (
	"bytes"
	"context"
	"sort"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"imoveis/internal/adapters/objectstore"
)

func startMinio(t *testing.T) *objectstore.Store {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "minio/minio",
		Tag:        "RELEASE.2024-10-13T13-34-11Z",
		Cmd:        []string{"server", "/data"},
		Env:        []string{"MINIO_ROOT_USER=minio", "MINIO_ROOT_PASSWORD=minio123"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Skipf("run minio: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	s, err := objectstore.New(objectstore.Options{
		Endpoint:  "127.0.0.1:" + resource.GetPort("9000/tcp"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "media",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := pool.Retry(func() error {
		return s.EnsureBucket(context.Background(), "us-east-1")
	}); err != nil {
		t.Fatalf("bucket: %v", err)
	}
	return s
}

func TestStore_Minio_UploadListDelete(t *testing.T) {
	s := startMinio(t)
	ctx := context.Background()

	for _, k := range []string{"properties/1/a.jpg", "properties/1/b.jpg", "properties/2/c.jpg"} {
		body := []byte("data-" + k)
		url, err := s.Upload(ctx, k, bytes.NewReader(body), int64(len(body)), "image/jpeg")
		if err != nil {
			t.Fatalf("upload %s: %v", k, err)
		}
		if url != s.URL(k) {
			t.Fatalf("url = %s", url)
		}
	}

	keys, err := s.List(ctx, "properties/1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "properties/1/a.jpg" {
		t.Fatalf("keys = %v", keys)
	}

	if err := s.Delete(ctx, "properties/2/c.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeletePrefix(ctx, "properties/1/"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	for _, p := range []string{"properties/1/", "properties/2/"} {
		if keys, _ := s.List(ctx, p); len(keys) != 0 {
			t.Fatalf("%s still holds %v", p, keys)
		}
	}
}
