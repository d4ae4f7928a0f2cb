package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"imoveis/internal/domain"
)

const defaultUploadWorkers = 4

type PropertyService struct {
	media      domain.MediaStore
	repo       domain.PropertyRepository
	cache      domain.Cache
	workers    int
	presignTTL time.Duration
}

func NewPropertyService(r domain.PropertyRepository, m domain.MediaStore, cache domain.Cache, uploadWorkers int, presignTTL time.Duration) *PropertyService {
	if uploadWorkers <= 0 {
		uploadWorkers = defaultUploadWorkers
	}
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &PropertyService{media: m, repo: r, cache: cache, workers: uploadWorkers, presignTTL: presignTTL}
}

const mediaPhaseFailed = "failed to process media/infrastructure"

// Create validates the form, inserts the property, uploads its media and
// stores its infrastructure. If anything after the insert fails the
// property row is deleted again.
func (s *PropertyService) Create(ctx context.Context, f PropertyForm) (domain.Property, error) {
	pf, err := parseForm(f, true)
	if err != nil {
		return domain.Property{}, err
	}

	p := pf.property
	p.Active = true
	if err := s.repo.CreateProperty(ctx, &p); err != nil {
		return domain.Property{}, classifyWrite(err, "create property")
	}

	imgs, err := s.uploadMedia(ctx, p.ID, f.Files)
	if err == nil {
		err = s.repo.CreateInfrastructure(ctx, p.ID, pf.infra)
	}
	if err != nil {
		log.Error().Err(err).Int64("property_id", p.ID).Str("code", p.Code).Msg("media/infrastructure phase failed; rolling back property")
		s.compensate(ctx, p.ID)
		return domain.Property{}, &domain.HTTPError{Status: http.StatusInternalServerError, Message: mediaPhaseFailed, Err: err}
	}

	invalidateAll(ctx, s.cache)
	p.Images = imgs
	p.Infrastructure = &pf.infra
	return s.reload(ctx, p), nil
}

// Update validates the form and rewrites every field of an existing
// property. Files whose name is already stored are skipped. A failure
// after the row update is not rolled back.
func (s *PropertyService) Update(ctx context.Context, ref string, f PropertyForm) (domain.Property, error) {
	pf, err := parseForm(f, false)
	if err != nil {
		return domain.Property{}, err
	}
	cur, err := s.lookup(ctx, ref)
	if err != nil {
		return domain.Property{}, err
	}

	p := pf.property
	p.ID = cur.ID
	p.Active = cur.Active
	p.Highlight = cur.Highlight
	p.CreatedAt = cur.CreatedAt
	if err := s.repo.UpdateProperty(ctx, p); err != nil {
		return domain.Property{}, classifyWrite(err, "update property")
	}
	invalidateAll(ctx, s.cache)

	if len(f.Files) > 0 {
		fresh, err := s.newFiles(ctx, p.ID, f.Files)
		if err == nil && len(fresh) > 0 {
			_, err = s.uploadMedia(ctx, p.ID, fresh)
		}
		if err == nil {
			err = s.repo.UpsertInfrastructure(ctx, p.ID, pf.infra)
		}
		if err != nil {
			log.Error().Err(err).Int64("property_id", p.ID).Msg("update media/infrastructure phase failed")
			return domain.Property{}, &domain.HTTPError{Status: http.StatusInternalServerError, Message: mediaPhaseFailed, Err: err}
		}
		invalidateAll(ctx, s.cache)
	}
	return s.reload(ctx, p), nil
}

// Delete removes the property with its media rows, then its stored objects.
func (s *PropertyService) Delete(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return &domain.ValidationError{Field: "code", Message: "is required"}
	}
	p, err := s.repo.GetPropertyByCode(ctx, code)
	if err != nil {
		return notFound(err, "property")
	}
	if err := s.repo.DeleteProperty(ctx, p.ID); err != nil {
		return fmt.Errorf("delete property %d: %w", p.ID, err)
	}
	invalidateAll(ctx, s.cache)
	if err := s.media.DeletePrefix(ctx, mediaPrefix(p.ID)); err != nil {
		log.Warn().Err(err).Int64("property_id", p.ID).Msg("media cleanup failed after delete")
	}
	return nil
}

func (s *PropertyService) ToggleActive(ctx context.Context, ref string) (domain.Property, error) {
	p, err := s.lookup(ctx, ref)
	if err != nil {
		return domain.Property{}, err
	}
	p.Active = !p.Active
	if err := s.repo.SetActive(ctx, p.ID, p.Active); err != nil {
		return domain.Property{}, fmt.Errorf("set active: %w", err)
	}
	invalidateAll(ctx, s.cache)
	return p, nil
}

func (s *PropertyService) ToggleHighlight(ctx context.Context, ref string) (domain.Property, error) {
	p, err := s.lookup(ctx, ref)
	if err != nil {
		return domain.Property{}, err
	}
	p.Highlight = !p.Highlight
	if err := s.repo.SetHighlight(ctx, p.ID, p.Highlight); err != nil {
		return domain.Property{}, fmt.Errorf("set highlight: %w", err)
	}
	invalidateAll(ctx, s.cache)
	return p, nil
}

// SetImageHighlight makes imageID the single cover image of propertyID.
func (s *PropertyService) SetImageHighlight(ctx context.Context, imageID, propertyID int64) error {
	img, err := s.repo.GetImage(ctx, imageID)
	if err != nil {
		return notFound(err, "image")
	}
	if img.PropertyID != propertyID {
		return &domain.HTTPError{Status: http.StatusNotFound, Message: "image not found", Err: domain.ErrNotFound}
	}
	if err := s.repo.SetImageHighlight(ctx, propertyID, imageID); err != nil {
		return fmt.Errorf("set image highlight: %w", err)
	}
	invalidateAll(ctx, s.cache)
	return nil
}

type PresignedUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PresignUpload issues a direct-upload URL under the property's prefix.
func (s *PropertyService) PresignUpload(ctx context.Context, ref, fileName string) (PresignedUpload, error) {
	p, err := s.lookup(ctx, ref)
	if err != nil {
		return PresignedUpload{}, err
	}
	key := mediaPrefix(p.ID) + uuid.NewString() + strings.ToLower(path.Ext(cleanName(fileName)))
	url, err := s.media.PresignUpload(ctx, key, s.presignTTL)
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return PresignedUpload{Key: key, URL: url, ExpiresAt: time.Now().Add(s.presignTTL).UTC()}, nil
}

// AttachUploaded records an object uploaded through a presigned URL.
func (s *PropertyService) AttachUploaded(ctx context.Context, ref, key, name, contentType string) (domain.Property, error) {
	p, err := s.lookup(ctx, ref)
	if err != nil {
		return domain.Property{}, err
	}
	if !strings.HasPrefix(key, mediaPrefix(p.ID)) || strings.Contains(key, "..") {
		return domain.Property{}, &domain.ValidationError{Field: "key", Message: "does not belong to this property"}
	}
	if name == "" {
		name = path.Base(key)
	}
	img := domain.Image{
		PropertyID: p.ID,
		URL:        s.media.URL(key),
		Name:       cleanName(name),
		Type:       mediaTypeOf(name, contentType),
	}
	if err := s.repo.InsertImages(ctx, p.ID, []domain.Image{img}); err != nil {
		return domain.Property{}, fmt.Errorf("insert image: %w", err)
	}
	invalidateAll(ctx, s.cache)
	return s.reload(ctx, p), nil
}

// uploadMedia stores files concurrently, then inserts their rows in one batch.
func (s *PropertyService) uploadMedia(ctx context.Context, propertyID int64, files []domain.MediaFile) ([]domain.Image, error) {
	imgs := make([]domain.Image, len(files))
	names := batchNames(files)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			name := names[i]
			url, err := s.media.Upload(gctx, mediaPrefix(propertyID)+name, f.Body, f.Size, f.ContentType)
			if err != nil {
				return fmt.Errorf("upload %s: %w", name, err)
			}
			imgs[i] = domain.Image{
				PropertyID: propertyID,
				URL:        url,
				Name:       name,
				Type:       mediaTypeOf(name, f.ContentType),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(ctx, propertyID, names, imgs)
		return nil, err
	}
	if err := s.repo.InsertImages(ctx, propertyID, imgs); err != nil {
		s.discard(ctx, propertyID, names, imgs)
		return nil, fmt.Errorf("insert images: %w", err)
	}
	return imgs, nil
}

// discard removes the objects a failed batch managed to upload, so a retry
// does not skip them as already stored.
func (s *PropertyService) discard(ctx context.Context, propertyID int64, names []string, imgs []domain.Image) {
	ctx = context.WithoutCancel(ctx)
	for i, img := range imgs {
		if img.URL == "" {
			continue
		}
		if err := s.media.Delete(ctx, mediaPrefix(propertyID)+names[i]); err != nil {
			log.Warn().Err(err).Int64("property_id", propertyID).Str("name", names[i]).Msg("discarding upload failed")
		}
	}
}

// newFiles drops files whose name already exists under the property prefix.
func (s *PropertyService) newFiles(ctx context.Context, propertyID int64, files []domain.MediaFile) ([]domain.MediaFile, error) {
	keys, err := s.media.List(ctx, mediaPrefix(propertyID))
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	stored := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		stored[path.Base(k)] = struct{}{}
	}
	var out []domain.MediaFile
	for _, f := range files {
		if _, ok := stored[cleanName(f.Name)]; ok {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// compensate removes a half-created property and anything uploaded for it.
func (s *PropertyService) compensate(ctx context.Context, id int64) {
	ctx = context.WithoutCancel(ctx)
	if err := s.repo.DeleteProperty(ctx, id); err != nil {
		log.Error().Err(err).Int64("property_id", id).Msg("compensating delete failed")
	}
	if err := s.media.DeletePrefix(ctx, mediaPrefix(id)); err != nil {
		log.Warn().Err(err).Int64("property_id", id).Msg("compensating media cleanup failed")
	}
}

// Get returns any property, active or not, by code or numeric id.
func (s *PropertyService) Get(ctx context.Context, ref string) (domain.Property, error) {
	return s.lookup(ctx, ref)
}

// lookup resolves a property by code, falling back to a numeric id.
func (s *PropertyService) lookup(ctx context.Context, ref string) (domain.Property, error) {
	p, err := s.repo.GetPropertyByCode(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
			p, err = s.repo.GetPropertyByID(ctx, id)
		}
	}
	if err != nil {
		return domain.Property{}, notFound(err, "property")
	}
	return p, nil
}

// reload re-reads p with generated ids; falls back to p on failure.
func (s *PropertyService) reload(ctx context.Context, p domain.Property) domain.Property {
	fresh, err := s.repo.GetPropertyByID(ctx, p.ID)
	if err != nil {
		log.Warn().Err(err).Int64("property_id", p.ID).Msg("reload after write failed")
		return p
	}
	return fresh
}

func notFound(err error, what string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.HTTPError{Status: http.StatusNotFound, Message: what + " not found", Err: err}
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func classifyWrite(err error, op string) error {
	if errors.Is(err, domain.ErrDuplicateCode) {
		return &domain.HTTPError{Status: http.StatusConflict, Message: "a property with this code already exists", Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mediaPrefix(id int64) string { return "properties/" + strconv.FormatInt(id, 10) + "/" }

func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "." || name == "/" || name == "" {
		return uuid.NewString()
	}
	return strings.ReplaceAll(name, " ", "-")
}

// batchNames cleans file names and suffixes repeats ("a.jpg", "a-2.jpg")
// so no two files of one batch share an object key.
func batchNames(files []domain.MediaFile) []string {
	out := make([]string, len(files))
	seen := make(map[string]bool, len(files))
	for i, f := range files {
		name := cleanName(f.Name)
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for n := 2; seen[name]; n++ {
			name = stem + "-" + strconv.Itoa(n) + ext
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

var videoExt = map[string]bool{".mp4": true, ".mov": true, ".webm": true, ".m4v": true, ".avi": true, ".mkv": true}

func mediaTypeOf(name, contentType string) domain.MediaType {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "video/"):
		return domain.MediaVideo
	case strings.HasPrefix(ct, "image/"):
		return domain.MediaImage
	case videoExt[strings.ToLower(path.Ext(name))]:
		return domain.MediaVideo
	}
	return domain.MediaImage
}
