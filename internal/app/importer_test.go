package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"imoveis/internal/app"
	"imoveis/internal/testhelpers"
)

const importFixture = `[
  {
    "codigo": "IMP-1",
    "titulo": "Apartamento reformado",
    "tipo": "Apartamento",
    "finalidade": "venda",
    "valor_venda": "R$ 1.234.567,50",
    "condominio": 850,
    "area": "98,5",
    "quartos": "3",
    "bairro": "Centro",
    "ativo": "sim",
    "caracteristicas": ["Piscina", "gym", "salão de festas", "heliponto"],
    "fotos": [{"url": "https://cdn.example/imp1/sala.jpg?w=800"}, "https://cdn.example/imp1/tour.mp4"]
  },
  {
    "code": "IMP-2",
    "type": "house",
    "purpose": "rent",
    "price": {"rent": 4200},
    "address": {"neighborhood": "Jardins"}
  },
  {"code": "IMP-3", "type": "castle", "purpose": "sale", "neighborhood": "Centro"},
  {"code": "IMP-1", "type": "lot", "purpose": "sale", "neighborhood": "Centro"}
]`

func loadFixture(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.Unmarshal([]byte(importFixture), &out); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return out
}

func TestImportAll_MapsAndReports(t *testing.T) {
	repo := testhelpers.NewRepo()
	svc := app.NewImportService(repo, testhelpers.NewCache())

	rep, err := svc.ImportAll(context.Background(), loadFixture(t), 1)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(rep.Created) != 2 || len(rep.Duplicates) != 1 || rep.Duplicates[0] != "IMP-1" {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if _, ok := rep.Failed["IMP-3"]; !ok {
		t.Fatalf("unknown type must fail: %+v", rep.Failed)
	}

	p, err := repo.GetPropertyByCode(context.Background(), "IMP-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.SalePrice == nil || *p.SalePrice != 1234567.5 {
		t.Fatalf("salePrice = %v", p.SalePrice)
	}
	if p.TotalArea == nil || *p.TotalArea != 98.5 || p.Bedrooms == nil || *p.Bedrooms != 3 {
		t.Fatalf("area/bedrooms: %v %v", p.TotalArea, p.Bedrooms)
	}
	if !p.Active || p.PropertyType != "apartment" || p.Purpose != "sale" {
		t.Fatalf("unexpected mapping: %+v", p)
	}
	in := p.Infrastructure
	if in == nil || !in.Pool || !in.Gym || !in.PartyRoom || in.Sauna {
		t.Fatalf("unexpected infrastructure: %+v", in)
	}
	if len(p.Images) != 2 || !p.Images[0].Highlight || p.Images[0].Name != "sala.jpg" || p.Images[1].Type != "video" {
		t.Fatalf("unexpected images: %+v", p.Images)
	}

	rent, _ := repo.GetPropertyByCode(context.Background(), "IMP-2")
	if rent.RentalPrice == nil || *rent.RentalPrice != 4200 || rent.Neighborhood != "Jardins" || rent.SalePrice != nil {
		t.Fatalf("unexpected nested mapping: %+v", rent)
	}
}

func TestImport_FailureAfterInsertDeletesProperty(t *testing.T) {
	repo := testhelpers.NewRepo()
	repo.Fail["CreateInfrastructure"] = errors.New("db gone")
	svc := app.NewImportService(repo, nil)

	if _, err := svc.Import(context.Background(), loadFixture(t)[1]); err == nil {
		t.Fatalf("expected error")
	}
	if repo.Count() != 0 {
		t.Fatalf("rows = %d, want 0", repo.Count())
	}
}

func TestImportAll_Concurrent(t *testing.T) {
	repo := testhelpers.NewRepo()
	svc := app.NewImportService(repo, nil)
	var batch []map[string]any
	for i := 0; i < 30; i++ {
		batch = append(batch, map[string]any{
			"code": "C" + string(rune('A'+i)), "type": "lot", "purpose": "sale", "neighborhood": "Centro",
		})
	}

	rep, err := svc.ImportAll(context.Background(), batch, 4)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(rep.Created) != 30 || repo.Count() != 30 {
		t.Fatalf("created=%d rows=%d", len(rep.Created), repo.Count())
	}
}
