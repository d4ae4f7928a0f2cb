package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"imoveis/internal/domain"
)

type ImportService struct {
	repo  domain.PropertyRepository
	cache domain.Cache
}

func NewImportService(r domain.PropertyRepository, c domain.Cache) *ImportService {
	return &ImportService{repo: r, cache: c}
}

type ImportReport struct {
	Created    []string          `json:"created"`
	Duplicates []string          `json:"duplicates"`
	Failed     map[string]string `json:"failed"`
}

// ImportAll imports listings with at most workers in flight. Per-listing
// failures are collected in the report; the error is only set when ctx
// ends before every listing was started.
func (s *ImportService) ImportAll(ctx context.Context, listings []map[string]any, workers int) (ImportReport, error) {
	if workers <= 0 {
		workers = 1
	}
	rep := ImportReport{Failed: map[string]string{}}
	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	var acquireErr error
	for i, raw := range listings {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			acquireErr = err
			break
		}
		wg.Add(1)
		go func(idx int, raw map[string]any) {
			defer wg.Done()
			defer sem.Release(1)

			code, err := s.Import(ctx, raw)
			if code == "" {
				code = fmt.Sprintf("#%d", idx)
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				rep.Created = append(rep.Created, code)
			case errors.Is(err, domain.ErrDuplicateCode):
				rep.Duplicates = append(rep.Duplicates, code)
			default:
				rep.Failed[code] = err.Error()
			}
		}(i, raw)
	}
	wg.Wait()

	if len(rep.Created) > 0 {
		invalidateAll(ctx, s.cache)
	}
	return rep, acquireErr
}

// Import maps and persists one listing and returns its code. A failure
// after the property insert deletes the property again.
func (s *ImportService) Import(ctx context.Context, raw map[string]any) (string, error) {
	l := mapListing(raw)
	p := l.property
	if err := validateImported(p); err != nil {
		return p.Code, err
	}

	if err := s.repo.CreateProperty(ctx, &p); err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			return p.Code, err
		}
		return p.Code, fmt.Errorf("create property: %w", err)
	}

	var err error
	if len(l.images) > 0 {
		err = s.repo.InsertImages(ctx, p.ID, l.images)
	}
	if err == nil {
		err = s.repo.CreateInfrastructure(ctx, p.ID, l.infra)
	}
	if err != nil {
		if derr := s.repo.DeleteProperty(context.WithoutCancel(ctx), p.ID); derr != nil {
			log.Error().Err(derr).Int64("property_id", p.ID).Msg("compensating delete failed")
		}
		return p.Code, fmt.Errorf("import media/infrastructure: %w", err)
	}
	log.Debug().Str("code", p.Code).Int("images", len(l.images)).Msg("listing imported")
	return p.Code, nil
}

func validateImported(p domain.Property) error {
	switch {
	case p.Code == "":
		return &domain.ValidationError{Field: keyCode, Message: "is required"}
	case !p.PropertyType.Valid():
		return &domain.ValidationError{Field: keyPropertyType, Message: fmt.Sprintf("unknown type %q", p.PropertyType)}
	case !p.Purpose.Valid():
		return &domain.ValidationError{Field: keyPurpose, Message: fmt.Sprintf("unknown purpose %q", p.Purpose)}
	case p.Neighborhood == "":
		return &domain.ValidationError{Field: keyNeighborhood, Message: "is required"}
	}
	return nil
}
