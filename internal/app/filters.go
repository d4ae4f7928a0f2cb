package app

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"imoveis/internal/domain"
)

const (
	DefaultItemsPerPage = 10
	maxItemsPerPage     = 100
)

var priceFields = []domain.Field{domain.FieldSalePrice, domain.FieldRentalPrice, domain.FieldDailyPrice}

// BuildPredicate turns public filters into the predicate for active
// listings. Categories are AND-ed; price bounds are OR-ed (min) or AND-ed
// (max) across the three price fields, independently of each other.
func BuildPredicate(f domain.PropertyFilters) domain.Predicate {
	clauses := []domain.Predicate{domain.Cond(domain.FieldActive, domain.OpEq, true)}

	if q := strings.TrimSpace(f.Query); q != "" {
		clauses = append(clauses, domain.Any(
			domain.Cond(domain.FieldTitle, domain.OpContains, q),
			domain.Cond(domain.FieldNeighborhood, domain.OpContains, q),
			domain.Cond(domain.FieldCode, domain.OpContains, q),
		))
	}
	if v := strings.TrimSpace(f.Purpose); v != "" {
		clauses = append(clauses, domain.Cond(domain.FieldPurpose, domain.OpEq, v))
	}
	if v := strings.TrimSpace(f.PropertyType); v != "" {
		clauses = append(clauses, domain.Cond(domain.FieldPropertyType, domain.OpEq, v))
	}
	if v := strings.TrimSpace(f.Neighborhood); v != "" {
		clauses = append(clauses, domain.Cond(domain.FieldNeighborhood, domain.OpEq, v))
	}

	if lo, ok := filterNumber(f.MinPrice); ok {
		// any price field that is set, non-zero and above the bound
		anyOf := make([]domain.Predicate, 0, len(priceFields))
		for _, fld := range priceFields {
			anyOf = append(anyOf, domain.All(
				domain.Cond(fld, domain.OpNotNull, nil),
				domain.Cond(fld, domain.OpNeq, 0.0),
				domain.Cond(fld, domain.OpGte, lo),
			))
		}
		clauses = append(clauses, domain.Any(anyOf...))
	}
	if hi, ok := filterNumber(f.MaxPrice); ok {
		// every price field is unused (zero/null) or below the bound
		allOf := make([]domain.Predicate, 0, len(priceFields))
		for _, fld := range priceFields {
			allOf = append(allOf, domain.Any(
				domain.Cond(fld, domain.OpEq, 0.0),
				domain.Cond(fld, domain.OpNull, nil),
				domain.Cond(fld, domain.OpLte, hi),
			))
		}
		clauses = append(clauses, domain.All(allOf...))
	}

	if area, ok := filterNumber(f.MinArea); ok {
		clauses = append(clauses, domain.Cond(domain.FieldTotalArea, domain.OpGte, area))
	}
	if n, ok := bedroomTier(f.Bedrooms); ok {
		clauses = append(clauses, domain.Cond(domain.FieldBedrooms, domain.OpGte, n))
	}
	return domain.All(clauses...)
}

// Window computes page number and offset for a filter page request. Pages
// whose offset would overflow get math.MaxInt, which is past any total.
func Window(page, itemsPerPage int) (int, domain.PageQuery) {
	if page < 1 {
		page = 1
	}
	if itemsPerPage < 1 {
		itemsPerPage = DefaultItemsPerPage
	}
	offset := math.MaxInt
	if page-1 <= math.MaxInt/itemsPerPage {
		offset = (page - 1) * itemsPerPage
	}
	return page, domain.PageQuery{Limit: itemsPerPage, Offset: offset}
}

func normalizeItemsPerPage(n int) int {
	if n <= 0 {
		return DefaultItemsPerPage
	}
	if n > maxItemsPerPage {
		return maxItemsPerPage
	}
	return n
}

func totalPages(total, perPage int) int {
	return int(math.Ceil(float64(total) / float64(perPage)))
}

// filterNumber parses an optional numeric filter; unparseable input means
// no constraint.
func filterNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := parseNumber(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// bedroomTier reads the numeric prefix of "2+", "3+", ...
func bedroomTier(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// filtersCacheKey derives a stable key from the normalised filters.
func filtersCacheKey(f domain.PropertyFilters, page, perPage int) string {
	parts := []string{
		"q=" + strings.ToLower(strings.TrimSpace(f.Query)),
		"purpose=" + strings.TrimSpace(f.Purpose),
		"type=" + strings.TrimSpace(f.PropertyType),
		"min=" + strings.TrimSpace(f.MinPrice),
		"max=" + strings.TrimSpace(f.MaxPrice),
		"area=" + strings.TrimSpace(f.MinArea),
		"beds=" + strings.TrimSpace(f.Bedrooms),
		"nb=" + strings.ToLower(strings.TrimSpace(f.Neighborhood)),
		"page=" + strconv.Itoa(page),
		"per=" + strconv.Itoa(perPage),
	}
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return keySearch + hex.EncodeToString(sum[:])
}
