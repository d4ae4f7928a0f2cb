package shared_test

import (
	"testing"
	"time"

	"imoveis/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("BROKER_WHATSAPP", "5511988887777")
	c := shared.Load()
	if c.HTTPAddr != ":8080" || c.ItemsPerPage != 10 || c.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.S3UseSSL || c.LeadsRPS != 0.2 || c.JWTTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("S3_USE_SSL", "true")
	t.Setenv("UPLOAD_WORKERS", "8")
	t.Setenv("PRESIGN_TTL_SECONDS", "60")
	t.Setenv("LEADS_RPS", "2.5")
	t.Setenv("ITEMS_PER_PAGE", "not-a-number")
	c := shared.Load()
	if !c.S3UseSSL || c.UploadWorkers != 8 || c.PresignTTL != time.Minute || c.LeadsRPS != 2.5 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.ItemsPerPage != 10 {
		t.Fatalf("invalid number should fall back to the default, got %d", c.ItemsPerPage)
	}
}
