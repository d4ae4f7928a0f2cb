// Package testhelpers holds in-memory implementations of the domain ports
// shared by tests across packages.
package testhelpers

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"imoveis/internal/domain"
)

// ---- repository ----

// Repo is an in-memory PropertyRepository. Fail injects an error for the
// named method (e.g. "InsertImages").
type Repo struct {
	mu      sync.Mutex
	nextID  int64
	nextImg int64
	props   map[int64]domain.Property
	images  map[int64]domain.Image
	infra   map[int64]domain.Infrastructure

	Fail  map[string]error
	Calls []string
}

func NewRepo() *Repo {
	return &Repo{
		props:  map[int64]domain.Property{},
		images: map[int64]domain.Image{},
		infra:  map[int64]domain.Infrastructure{},
		Fail:   map[string]error{},
	}
}

func (r *Repo) enter(method string) error {
	r.Calls = append(r.Calls, method)
	return r.Fail[method]
}

// Count returns the number of stored properties.
func (r *Repo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.props)
}

// Called reports whether method was invoked.
func (r *Repo) Called(method string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Calls {
		if c == method {
			return true
		}
	}
	return false
}

// Seed stores p as is (plus its images and infrastructure) and returns it
// with ids assigned.
func (r *Repo) Seed(p domain.Property) domain.Property {
	if err := r.CreateProperty(context.Background(), &p); err != nil {
		panic(err)
	}
	if len(p.Images) > 0 {
		_ = r.InsertImages(context.Background(), p.ID, p.Images)
	}
	if p.Infrastructure != nil {
		_ = r.CreateInfrastructure(context.Background(), p.ID, *p.Infrastructure)
	}
	out, _ := r.GetPropertyByID(context.Background(), p.ID)
	return out
}

func (r *Repo) CreateProperty(ctx context.Context, p *domain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateProperty"); err != nil {
		return err
	}
	for _, cur := range r.props {
		if cur.Code == p.Code {
			return domain.ErrDuplicateCode
		}
	}
	r.nextID++
	p.ID = r.nextID
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.Images, stored.Infrastructure = nil, nil
	r.props[p.ID] = stored
	return nil
}

func (r *Repo) UpdateProperty(ctx context.Context, p domain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("UpdateProperty"); err != nil {
		return err
	}
	if _, ok := r.props[p.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, cur := range r.props {
		if id != p.ID && cur.Code == p.Code {
			return domain.ErrDuplicateCode
		}
	}
	p.UpdatedAt = time.Now().UTC()
	p.Images, p.Infrastructure = nil, nil
	r.props[p.ID] = p
	return nil
}

func (r *Repo) DeleteProperty(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("DeleteProperty"); err != nil {
		return err
	}
	if _, ok := r.props[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.props, id)
	delete(r.infra, id)
	for iid, img := range r.images {
		if img.PropertyID == id {
			delete(r.images, iid)
		}
	}
	return nil
}

func (r *Repo) setFlag(method string, id int64, fn func(*domain.Property)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(method); err != nil {
		return err
	}
	p, ok := r.props[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&p)
	r.props[id] = p
	return nil
}

func (r *Repo) SetActive(ctx context.Context, id int64, active bool) error {
	return r.setFlag("SetActive", id, func(p *domain.Property) { p.Active = active })
}

func (r *Repo) SetHighlight(ctx context.Context, id int64, highlight bool) error {
	return r.setFlag("SetHighlight", id, func(p *domain.Property) { p.Highlight = highlight })
}

func (r *Repo) InsertImages(ctx context.Context, propertyID int64, imgs []domain.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("InsertImages"); err != nil {
		return err
	}
	if _, ok := r.props[propertyID]; !ok {
		return domain.ErrNotFound
	}
	for _, img := range imgs {
		r.nextImg++
		img.ID = r.nextImg
		img.PropertyID = propertyID
		r.images[img.ID] = img
	}
	return nil
}

func (r *Repo) CreateInfrastructure(ctx context.Context, propertyID int64, in domain.Infrastructure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CreateInfrastructure"); err != nil {
		return err
	}
	if _, ok := r.infra[propertyID]; ok {
		return domain.ErrDuplicateCode
	}
	r.infra[propertyID] = in
	return nil
}

func (r *Repo) UpsertInfrastructure(ctx context.Context, propertyID int64, in domain.Infrastructure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("UpsertInfrastructure"); err != nil {
		return err
	}
	r.infra[propertyID] = in
	return nil
}

func (r *Repo) SetImageHighlight(ctx context.Context, propertyID, imageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("SetImageHighlight"); err != nil {
		return err
	}
	target, ok := r.images[imageID]
	if !ok || target.PropertyID != propertyID {
		return domain.ErrNotFound
	}
	for id, img := range r.images {
		if img.PropertyID == propertyID {
			img.Highlight = id == imageID
			r.images[id] = img
		}
	}
	return nil
}

func (r *Repo) GetPropertyByID(ctx context.Context, id int64) (domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetPropertyByID"); err != nil {
		return domain.Property{}, err
	}
	p, ok := r.props[id]
	if !ok {
		return domain.Property{}, domain.ErrNotFound
	}
	return r.hydrate(p), nil
}

func (r *Repo) GetPropertyByCode(ctx context.Context, code string) (domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetPropertyByCode"); err != nil {
		return domain.Property{}, err
	}
	for _, p := range r.props {
		if p.Code == code {
			return r.hydrate(p), nil
		}
	}
	return domain.Property{}, domain.ErrNotFound
}

func (r *Repo) GetImage(ctx context.Context, id int64) (domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("GetImage"); err != nil {
		return domain.Image{}, err
	}
	img, ok := r.images[id]
	if !ok {
		return domain.Image{}, domain.ErrNotFound
	}
	return img, nil
}

func (r *Repo) ListProperties(ctx context.Context) ([]domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("ListProperties"); err != nil {
		return nil, err
	}
	return r.matching(domain.Predicate{}), nil
}

func (r *Repo) FindProperties(ctx context.Context, where domain.Predicate, pg domain.PageQuery) ([]domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("FindProperties"); err != nil {
		return nil, err
	}
	all := r.matching(where)
	if pg.Offset >= len(all) {
		return []domain.Property{}, nil
	}
	all = all[pg.Offset:]
	if pg.Limit > 0 && pg.Limit < len(all) {
		all = all[:pg.Limit]
	}
	return all, nil
}

func (r *Repo) CountProperties(ctx context.Context, where domain.Predicate) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter("CountProperties"); err != nil {
		return 0, err
	}
	return len(r.matching(where)), nil
}

// Images returns the stored media of a property ordered by id.
func (r *Repo) Images(propertyID int64) []domain.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.imagesOf(propertyID)
}

// matching returns hydrated properties ordered like the SQL store:
// highlighted first, newest first.
func (r *Repo) matching(where domain.Predicate) []domain.Property {
	out := []domain.Property{}
	for _, p := range r.props {
		if where.Match(p) {
			out = append(out, r.hydrate(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Highlight != b.Highlight {
			return a.Highlight
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out
}

func (r *Repo) hydrate(p domain.Property) domain.Property {
	p.Images = r.imagesOf(p.ID)
	if in, ok := r.infra[p.ID]; ok {
		p.Infrastructure = &in
	}
	return p
}

func (r *Repo) imagesOf(propertyID int64) []domain.Image {
	out := []domain.Image{}
	for _, img := range r.images {
		if img.PropertyID == propertyID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- media store ----

// Media is an in-memory MediaStore. FailUpload fails uploads whose key
// ends with the given file name.
type Media struct {
	mu      sync.Mutex
	Objects map[string][]byte

	FailUpload string
	FailList   error
	Deleted    []string
}

func NewMedia() *Media { return &Media{Objects: map[string][]byte{}} }

const MediaBaseURL = "https://media.test/"

func (m *Media) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if m.FailUpload != "" && strings.HasSuffix(key, "/"+m.FailUpload) {
		return "", io.ErrUnexpectedEOF
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = b
	return m.URL(key), nil
}

func (m *Media) List(ctx context.Context, prefix string) ([]string, error) {
	if m.FailList != nil {
		return nil, m.FailList
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.Objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Media) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *Media) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.Objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.Objects, k)
			m.Deleted = append(m.Deleted, k)
		}
	}
	return nil
}

func (m *Media) PresignUpload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return m.URL(key) + "?X-Amz-Expires=" + strconv.Itoa(int(expiry.Seconds())), nil
}

func (m *Media) URL(key string) string { return MediaBaseURL + key }

// Keys returns the stored object keys under prefix.
func (m *Media) Keys(prefix string) []string {
	keys, _ := m.List(context.Background(), prefix)
	return keys
}

// ---- cache ----

// Cache is an in-memory JSON cache mirroring the Redis adapter.
type Cache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func NewCache() *Cache { return &Cache{store: map[string][]byte{}} }

func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	b, ok := c.store[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = b
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *Cache) DelPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

// Corrupt overwrites every entry with bytes that do not decode.
func (c *Cache) Corrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		c.store[k] = []byte("{not json")
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// ---- notifier ----

type SentText struct{ To, Body string }

type Notifier struct {
	mu   sync.Mutex
	Err  error
	Sent []SentText
}

func (n *Notifier) SendText(ctx context.Context, to, body string) error {
	if n.Err != nil {
		return n.Err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, SentText{To: to, Body: body})
	return nil
}
