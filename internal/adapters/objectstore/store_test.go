package objectstore_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"imoveis/internal/adapters/objectstore"
)

func TestURL_DefaultsToEndpointAndBucket(t *testing.T) {
	s, err := objectstore.New(objectstore.Options{Endpoint: "localhost:9000", Bucket: "media", Region: "us-east-1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := s.URL("properties/1/a.jpg"); got != "http://localhost:9000/media/properties/1/a.jpg" {
		t.Fatalf("URL = %s", got)
	}
}

func TestURL_PublicBase(t *testing.T) {
	s, _ := objectstore.New(objectstore.Options{
		Endpoint: "s3.amazonaws.com", Bucket: "media", UseSSL: true, Region: "sa-east-1",
		PublicURL: "https://cdn.imoveis.test/",
	})
	if got := s.URL("/properties/2/b.mp4"); got != "https://cdn.imoveis.test/properties/2/b.mp4" {
		t.Fatalf("URL = %s", got)
	}
}

func TestPresignUpload_SignsWithoutNetwork(t *testing.T) {
	s, _ := objectstore.New(objectstore.Options{
		Endpoint: "localhost:9000", Bucket: "media", Region: "us-east-1",
		AccessKey: "minio", SecretKey: "minio123",
	})
	raw, err := s.PresignUpload(context.Background(), "properties/3/c.jpg", 10*time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.HasSuffix(u.Path, "/media/properties/3/c.jpg") {
		t.Fatalf("unexpected path %s", u.Path)
	}
	if u.Query().Get("X-Amz-Expires") != "600" || u.Query().Get("X-Amz-Signature") == "" {
		t.Fatalf("missing signature params: %s", u.RawQuery)
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	if _, err := objectstore.New(objectstore.Options{Endpoint: "localhost:9000"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}
