package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"imoveis/internal/domain"
)

// Cache key space. Every write drops everything under keyPrefix.
const (
	keyPrefix     = "properties:"
	keySearch     = keyPrefix + "search:"
	keyByCode     = keyPrefix + "code:"
	keyHighlights = keyPrefix + "highlights:"
)

type QueryService struct {
	repo     domain.PropertyRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.PropertyRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

// ListByFilters returns one page of active properties matching f.
func (s *QueryService) ListByFilters(ctx context.Context, f domain.PropertyFilters, itemsPerPage int) (domain.PropertyPage, error) {
	perPage := normalizeItemsPerPage(itemsPerPage)
	page, window := Window(f.Page, perPage)

	key := filtersCacheKey(f, page, perPage)
	var out domain.PropertyPage
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}

	where := BuildPredicate(f)
	log.Debug().Stringer("where", where).Int("page", page).Msg("searching properties")
	total, err := s.repo.CountProperties(ctx, where)
	if err != nil {
		return domain.PropertyPage{}, fmt.Errorf("count properties: %w", err)
	}
	items := []domain.Property{}
	if window.Offset < total {
		items, err = s.repo.FindProperties(ctx, where, window)
		if err != nil {
			return domain.PropertyPage{}, fmt.Errorf("find properties: %w", err)
		}
	}

	out = domain.PropertyPage{
		Items:       items,
		Total:       total,
		TotalPages:  totalPages(total, perPage),
		CurrentPage: page,
	}
	s.cacheSet(ctx, key, out)
	return out, nil
}

// LandingPage is the unfiltered first listing; storage failures degrade to
// an empty page.
func (s *QueryService) LandingPage(ctx context.Context, page, itemsPerPage int) domain.PropertyPage {
	out, err := s.ListByFilters(ctx, domain.PropertyFilters{Page: page}, itemsPerPage)
	if err != nil {
		log.Error().Err(err).Msg("landing listing failed; serving empty page")
		p, _ := Window(page, normalizeItemsPerPage(itemsPerPage))
		return domain.PropertyPage{Items: []domain.Property{}, CurrentPage: p}
	}
	return out
}

// ListAll returns every property, active or not, with media and infrastructure.
func (s *QueryService) ListAll(ctx context.Context) ([]domain.Property, error) {
	ps, err := s.repo.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return ps, nil
}

func (s *QueryService) GetByCode(ctx context.Context, code string) (domain.Property, error) {
	key := keyByCode + code
	var p domain.Property
	if s.cacheGet(ctx, key, &p) {
		return p, nil
	}
	p, err := s.repo.GetPropertyByCode(ctx, code)
	if err != nil {
		return domain.Property{}, err
	}
	s.cacheSet(ctx, key, p)
	return p, nil
}

// ListHighlighted returns active highlighted properties for the homepage.
func (s *QueryService) ListHighlighted(ctx context.Context, limit int) ([]domain.Property, error) {
	limit = normalizeItemsPerPage(limit)
	key := fmt.Sprintf("%s%d", keyHighlights, limit)
	var out []domain.Property
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}
	where := domain.All(
		domain.Cond(domain.FieldActive, domain.OpEq, true),
		domain.Cond(domain.FieldHighlight, domain.OpEq, true),
	)
	out, err := s.repo.FindProperties(ctx, where, domain.PageQuery{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("find highlighted: %w", err)
	}
	s.cacheSet(ctx, key, out)
	return out, nil
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		// found but undecodable
		if ok {
			if derr := s.cache.Del(ctx, key); derr != nil {
				log.Warn().Err(derr).Str("key", key).Msg("cache evict failed")
			}
		}
		return false
	}
	return ok
}

func (s *QueryService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	// size guard
	if b, _ := json.Marshal(v); len(b) >= 1_000_000 {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// invalidateAll drops every cached read after a write.
func invalidateAll(ctx context.Context, c domain.Cache) {
	if c == nil {
		return
	}
	if err := c.DelPrefix(ctx, keyPrefix); err != nil {
		log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
