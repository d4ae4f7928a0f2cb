package app_test

import (
	"context"
	"math"
	"testing"

	"imoveis/internal/app"
	"imoveis/internal/domain"
	"imoveis/internal/testhelpers"
)

// priced builds an active listing with the given sale/rent/daily prices;
// negative means unset.
func priced(code string, sale, rent, daily float64) domain.Property {
	return listing(code, func(p *domain.Property) {
		set := func(v float64) *float64 {
			if v < 0 {
				return nil
			}
			return ptr(v)
		}
		p.SalePrice, p.RentalPrice, p.DailyPrice = set(sale), set(rent), set(daily)
	})
}

func search(t *testing.T, repo *testhelpers.Repo, f domain.PropertyFilters) map[string]bool {
	t.Helper()
	page, err := app.NewQueryService(repo, nil, 0).ListByFilters(context.Background(), f, 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	return codes(page.Items)
}

func TestFilters_MinPriceMatchesAnyPriceField(t *testing.T) {
	repo := testhelpers.NewRepo()
	repo.Seed(priced("SALE", 500000, -1, -1))
	repo.Seed(priced("RENT", -1, 3000, -1))
	repo.Seed(priced("DAILY", 0, -1, 400))
	repo.Seed(priced("CHEAP", 1000, 200, -1))
	repo.Seed(priced("ZERO", 0, 0, 0))

	got := search(t, repo, domain.PropertyFilters{MinPrice: "300"})
	for _, c := range []string{"SALE", "RENT", "DAILY", "CHEAP"} {
		if !got[c] {
			t.Fatalf("%s should match minPrice=300, got %v", c, got)
		}
	}
	if got["ZERO"] {
		t.Fatalf("zero prices must not satisfy a minimum")
	}

	got = search(t, repo, domain.PropertyFilters{MinPrice: "2000"})
	if got["CHEAP"] || !got["RENT"] {
		t.Fatalf("unexpected minPrice=2000 result: %v", got)
	}
}

func TestFilters_MaxPriceRequiresEverySetPrice(t *testing.T) {
	repo := testhelpers.NewRepo()
	repo.Seed(priced("LOW", 900, -1, 0))
	repo.Seed(priced("MIXED", 500000, 900, -1))
	repo.Seed(priced("NONE", -1, -1, -1))

	got := search(t, repo, domain.PropertyFilters{MaxPrice: "1000"})
	if !got["LOW"] || !got["NONE"] || got["MIXED"] {
		t.Fatalf("unexpected maxPrice result: %v", got)
	}
}

func TestFilters_MinAndMaxAreIndependentAcrossFields(t *testing.T) {
	// only the rental price reaches the minimum
	repo := testhelpers.NewRepo()
	repo.Seed(priced("SPLIT", 100, 5000, -1))

	got := search(t, repo, domain.PropertyFilters{MinPrice: "1000", MaxPrice: "6000"})
	if !got["SPLIT"] {
		t.Fatalf("bounds are checked per filter, not per field: %v", got)
	}
}

func TestFilters_BedroomTier(t *testing.T) {
	repo := testhelpers.NewRepo()
	for code, n := range map[string]int{"B1": 1, "B3": 3, "B5": 5} {
		repo.Seed(listing(code, func(p *domain.Property) { p.Bedrooms = ptr(n) }))
	}
	repo.Seed(listing("BX", nil))

	got := search(t, repo, domain.PropertyFilters{Bedrooms: "3+"})
	if len(got) != 2 || !got["B3"] || !got["B5"] {
		t.Fatalf("unexpected 3+ result: %v", got)
	}
}

func TestFilters_CategoriesAndText(t *testing.T) {
	repo := testhelpers.NewRepo()
	repo.Seed(listing("AP1", func(p *domain.Property) { p.Title = "Cobertura com vista"; p.TotalArea = ptr(180.0) }))
	repo.Seed(listing("CA1", func(p *domain.Property) {
		p.PropertyType = domain.TypeHouse
		p.Purpose = domain.PurposeRent
		p.Neighborhood = "Jardins"
		p.TotalArea = ptr(90.0)
	}))

	cases := []struct {
		name string
		f    domain.PropertyFilters
		want string
	}{
		{"type", domain.PropertyFilters{PropertyType: "house"}, "CA1"},
		{"purpose", domain.PropertyFilters{Purpose: "sale"}, "AP1"},
		{"neighborhood ignores case", domain.PropertyFilters{Neighborhood: "jardins"}, "CA1"},
		{"query on title", domain.PropertyFilters{Query: "COBERTURA"}, "AP1"},
		{"query on code", domain.PropertyFilters{Query: "ca1"}, "CA1"},
		{"min area", domain.PropertyFilters{MinArea: "100"}, "AP1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := search(t, repo, tc.f)
			if len(got) != 1 || !got[tc.want] {
				t.Fatalf("want only %s, got %v", tc.want, got)
			}
		})
	}
}

func TestFilters_UnparseableNumbersAreIgnored(t *testing.T) {
	repo := testhelpers.NewRepo()
	repo.Seed(priced("A", 10, -1, -1))
	repo.Seed(priced("B", 20, -1, -1))

	got := search(t, repo, domain.PropertyFilters{MinPrice: "abc", MaxPrice: " ", Bedrooms: "any"})
	if len(got) != 2 {
		t.Fatalf("invalid numeric filters must not constrain: %v", got)
	}
}

func TestFilters_NonFiniteNumbersAreIgnored(t *testing.T) {
	repo := testhelpers.NewRepo()
	repo.Seed(priced("A", 10, -1, -1))
	repo.Seed(priced("B", 20, -1, -1))

	for _, v := range []string{"NaN", "Inf", "-Inf", "+Infinity"} {
		got := search(t, repo, domain.PropertyFilters{MinPrice: v, MaxPrice: v, MinArea: v})
		if len(got) != 2 {
			t.Fatalf("%s must not constrain: %v", v, got)
		}
	}
}

func TestWindow(t *testing.T) {
	page, w := app.Window(0, 10)
	if page != 1 || w.Offset != 0 || w.Limit != 10 {
		t.Fatalf("page 0: %d %+v", page, w)
	}
	page, w = app.Window(4, 25)
	if page != 4 || w.Offset != 75 {
		t.Fatalf("page 4: %d %+v", page, w)
	}
	page, w = app.Window(math.MaxInt, 20)
	if page != math.MaxInt || w.Offset < 0 {
		t.Fatalf("huge page: %d %+v", page, w)
	}
}

func TestBuildPredicate_AlwaysActiveOnly(t *testing.T) {
	where := app.BuildPredicate(domain.PropertyFilters{})
	if where.Match(domain.Property{Active: false}) {
		t.Fatalf("inactive property matched empty filters")
	}
	if !where.Match(domain.Property{Active: true}) {
		t.Fatalf("active property must match empty filters")
	}
}
