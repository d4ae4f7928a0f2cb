package mysql_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"

	"imoveis/internal/domain"
	mysqlrepo "imoveis/internal/storage/mysql"
)

func newMock(t *testing.T) (*mysqlrepo.Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return mysqlrepo.New(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestSetImageHighlight_LocksAndSwapsInOneTx(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM properties WHERE id = ? FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(q("SELECT 1 FROM property_images WHERE id = ? AND property_id = ?")).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(q("UPDATE property_images SET highlight = (id = ?) WHERE property_id = ?")).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.SetImageHighlight(context.Background(), 7, 3); err != nil {
		t.Fatalf("SetImageHighlight: %v", err)
	}
}

func TestSetImageHighlight_ForeignImageRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(q("SELECT 1 FROM property_images")).
		WithArgs(int64(99), int64(7)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if err := repo.SetImageHighlight(context.Background(), 7, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateProperty_DuplicateCode(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO properties")).
		WillReturnError(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry 'X100' for key 'uq_properties_code'"})

	p := domain.Property{Code: "X100", PropertyType: domain.TypeApartment, Purpose: domain.PurposeSale}
	if err := repo.CreateProperty(context.Background(), &p); !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestCreateProperty_NullsForEmptyNumbers(t *testing.T) {
	repo, mock := newMock(t)
	sale := 500000.0
	mock.ExpectExec(q("INSERT INTO properties")).
		WithArgs("X100", "", "apartment", "sale",
			sale, nil, nil, nil, nil,
			false, false, nil, nil,
			nil, nil, nil, nil,
			nil, nil, "Centro", "http://maps.example/x", nil, true, false).
		WillReturnResult(sqlmock.NewResult(42, 1))

	p := domain.Property{
		Code: "X100", PropertyType: domain.TypeApartment, Purpose: domain.PurposeSale,
		SalePrice: &sale, Neighborhood: "Centro", Location: "http://maps.example/x", Active: true,
	}
	if err := repo.CreateProperty(context.Background(), &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID != 42 {
		t.Fatalf("id = %d, want 42", p.ID)
	}
}

func TestDeleteProperty_MissingRowIsNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM property_images")).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("DELETE FROM property_infrastructure")).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("DELETE FROM properties WHERE id = ?")).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.DeleteProperty(context.Background(), 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCountProperties_RendersPredicate(t *testing.T) {
	repo, mock := newMock(t)
	where := domain.All(
		domain.Cond(domain.FieldActive, domain.OpEq, true),
		domain.Cond(domain.FieldBedrooms, domain.OpGte, 3),
	)
	mock.ExpectQuery(q("SELECT COUNT(*) FROM properties p WHERE (p.active = ? AND p.number_of_bedrooms >= ?)")).
		WithArgs(true, 3).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))

	n, err := repo.CountProperties(context.Background(), where)
	if err != nil || n != 4 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

var propertyCols = []string{
	"id", "code", "title", "property_type", "purpose",
	"sale_price", "rental_price", "daily_price", "condominium_fee", "iptu_value",
	"accepts_financing", "accepts_exchange", "total_area", "built_area",
	"number_of_bedrooms", "number_of_suites", "number_of_bathrooms", "number_of_parking_spots",
	"construction_year", "floor", "neighborhood", "location", "description",
	"active", "highlight", "created_at", "updated_at",
}

func TestFindProperties_LoadsMediaAndInfrastructure(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(q("FROM properties p WHERE (p.active = ?) ORDER BY p.highlight DESC, p.created_at DESC, p.id DESC LIMIT ? OFFSET ?")).
		WithArgs(true, 10, 0).
		WillReturnRows(sqlmock.NewRows(propertyCols).
			AddRow(1, "A1", "Casa", "house", "rent",
				nil, "3500.00", nil, nil, nil,
				false, true, "120.50", nil,
				3, nil, 2, nil,
				nil, nil, "Centro", "http://maps.example/a1", nil,
				true, false, now, now))
	mock.ExpectQuery(q("FROM property_images WHERE property_id IN (?) ORDER BY id")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "property_id", "url", "name", "type", "highlight"}).
			AddRow(10, 1, "https://media.test/properties/1/a.jpg", "a.jpg", "image", true))
	infraCols := append([]string{"property_id"}, domain.Features...)
	infraRow := []any{int64(1)}
	for range domain.Features {
		infraRow = append(infraRow, false)
	}
	infraRow[1] = true // pool
	mock.ExpectQuery(q("FROM property_infrastructure WHERE property_id IN (?)")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(infraCols).AddRow(toValues(infraRow)...))

	ps, err := repo.FindProperties(context.Background(),
		domain.All(domain.Cond(domain.FieldActive, domain.OpEq, true)),
		domain.PageQuery{Limit: 10})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(ps) != 1 {
		t.Fatalf("rows = %d", len(ps))
	}
	p := ps[0]
	if p.SalePrice != nil || p.RentalPrice == nil || *p.RentalPrice != 3500 || *p.TotalArea != 120.5 {
		t.Fatalf("unexpected prices: %+v", p)
	}
	if p.Bedrooms == nil || *p.Bedrooms != 3 || p.Suites != nil {
		t.Fatalf("unexpected counts: %+v", p)
	}
	if len(p.Images) != 1 || !p.Images[0].Highlight || p.Infrastructure == nil || !p.Infrastructure.Pool || p.Infrastructure.Gym {
		t.Fatalf("unexpected relations: %+v / %+v", p.Images, p.Infrastructure)
	}
}

func toValues(in []any) []driver.Value {
	out := make([]driver.Value, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
