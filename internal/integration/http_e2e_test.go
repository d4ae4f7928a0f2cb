//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"imoveis/internal/adapters/auth"
	server "imoveis/internal/adapters/http_server"
	redisad "imoveis/internal/adapters/redis"
	"imoveis/internal/app"
	"imoveis/internal/domain"
	mysqlrepo "imoveis/internal/storage/mysql"
	"imoveis/internal/testhelpers"
)

// ---------- helpers ----------

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=imoveis",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Skipf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/imoveis?parseTime=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := mysqlrepo.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createForm(t *testing.T, code, price string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"code":           code,
		"title":          "Apartamento " + code,
		"propertyType":   "apartment",
		"purpose":        "sale",
		"neighborhood":   "Centro",
		"location":       "http://maps.example/" + code,
		"salePrice":      price,
		"infrastructure": `["pool","elevator"]`,
	} {
		_ = mw.WriteField(k, v)
	}
	fw, _ := mw.CreateFormFile("files", "front.jpg")
	_, _ = fw.Write([]byte("jpeg"))
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

// ---------- the test ----------

func TestHTTP_EndToEnd_CreateSearchHighlight(t *testing.T) {
	db := startMySQL(t)
	mr := miniredis.RunT(t)

	repo := mysqlrepo.New(db)
	cache := redisad.New(mr.Addr(), "", 0)
	media := testhelpers.NewMedia()
	issuer, _ := auth.NewIssuer("e2e-secret", time.Hour, "admin@imoveis.test", "pw")

	srv := server.New(10 * time.Second)
	srv.MountHandlers(&server.Handlers{
		Q:            app.NewQueryService(repo, cache, time.Minute),
		P:            app.NewPropertyService(repo, media, cache, 2, time.Minute),
		Leads:        app.NewLeadService(repo, nil, "5511988887777"),
		Auth:         issuer,
		ItemsPerPage: 10,
		LeadsRPS:     10,
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()
	token, _, _ := issuer.Login("admin@imoveis.test", "pw")

	do := func(method, path, ct string, body *bytes.Buffer) *http.Response {
		t.Helper()
		var req *http.Request
		if body != nil {
			req, _ = http.NewRequest(method, ts.URL+path, body)
		} else {
			req, _ = http.NewRequest(method, ts.URL+path, nil)
		}
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		t.Cleanup(func() { _ = res.Body.Close() })
		return res
	}

	// create two properties; the second one twice to hit the unique key
	for _, c := range []struct{ code, price string }{{"E1", "500000"}, {"E2", "1250000,50"}} {
		body, ct := createForm(t, c.code, c.price)
		if res := do(http.MethodPost, "/v1/admin/properties", ct, body); res.StatusCode != http.StatusCreated {
			t.Fatalf("create %s: status %d", c.code, res.StatusCode)
		}
	}
	body, ct := createForm(t, "E1", "1")
	if res := do(http.MethodPost, "/v1/admin/properties", ct, body); res.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate create: status %d", res.StatusCode)
	}

	// search goes through the SQL predicate and the redis cache
	search := bytes.NewBufferString(`{"filters":{"maxPrice":"600000","query":"apartamento"}}`)
	res := do(http.MethodPost, "/v1/properties/search", "application/json", search)
	var page domain.PropertyPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || page.Items[0].Code != "E1" || len(page.Items[0].Images) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if len(mr.Keys()) == 0 {
		t.Fatalf("search result was not cached")
	}

	// upload a second image through presign+attach, then move the highlight
	res = do(http.MethodGet, "/v1/properties/E1", "", nil)
	var p domain.Property
	_ = json.NewDecoder(res.Body).Decode(&p)
	if p.Infrastructure == nil || !p.Infrastructure.Elevator {
		t.Fatalf("infrastructure not persisted: %+v", p.Infrastructure)
	}
	key := fmt.Sprintf("properties/%d/extra.jpg", p.ID)
	attach := bytes.NewBufferString(`{"key":"` + key + `","contentType":"image/jpeg"}`)
	if res := do(http.MethodPost, "/v1/admin/properties/E1/media", "application/json", attach); res.StatusCode != http.StatusCreated {
		t.Fatalf("attach: status %d", res.StatusCode)
	}
	imgs, _ := repo.GetPropertyByID(context.Background(), p.ID)
	if len(imgs.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(imgs.Images))
	}
	target := imgs.Images[1]
	hl := bytes.NewBufferString(fmt.Sprintf(`{"id":%d,"propertyId":%d}`, target.ID, p.ID))
	if res := do(http.MethodPost, "/v1/admin/images/highlight", "application/json", hl); res.StatusCode != http.StatusOK {
		t.Fatalf("image highlight: status %d", res.StatusCode)
	}
	after, _ := repo.GetPropertyByID(context.Background(), p.ID)
	for _, img := range after.Images {
		if img.Highlight != (img.ID == target.ID) {
			t.Fatalf("unexpected highlight state: %+v", after.Images)
		}
	}

	// deactivate hides it from the public detail route
	if res := do(http.MethodPut, "/v1/admin/properties/E1/active", "", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("toggle active: status %d", res.StatusCode)
	}
	if res := do(http.MethodGet, "/v1/properties/E1", "", nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("inactive property visible: status %d", res.StatusCode)
	}

	del := bytes.NewBufferString(`{"code":"E2"}`)
	if res := do(http.MethodDelete, "/v1/admin/properties", "application/json", del); res.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d", res.StatusCode)
	}
	if keys := media.Keys("properties/"); len(keys) != 1 || !strings.HasPrefix(keys[0], fmt.Sprintf("properties/%d/", p.ID)) {
		t.Fatalf("media of deleted property left behind: %v", keys)
	}
}
