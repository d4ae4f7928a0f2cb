package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"imoveis/internal/domain"
)

// MySQL error number for a unique key violation.
const errDupEntry = 1062

func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isDuplicate(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func propertyArgs(p domain.Property) []any {
	return []any{
		p.Code,
		p.Title,
		string(p.PropertyType),
		string(p.Purpose),
		valF64(p.SalePrice),
		valF64(p.RentalPrice),
		valF64(p.DailyPrice),
		valF64(p.CondominiumFee),
		valF64(p.IPTUValue),
		p.AcceptsFinancing,
		p.AcceptsExchange,
		valF64(p.TotalArea),
		valF64(p.BuiltArea),
		valInt(p.Bedrooms),
		valInt(p.Suites),
		valInt(p.Bathrooms),
		valInt(p.ParkingSpots),
		valInt(p.ConstructionYear),
		valInt(p.Floor),
		p.Neighborhood,
		p.Location,
		valStr(p.Description),
		p.Active,
		p.Highlight,
	}
}

func (r *Repo) CreateProperty(ctx context.Context, p *domain.Property) error {
	res, err := r.db.ExecContext(ctx, insertPropertySQL, propertyArgs(*p)...)
	if err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicateCode
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (r *Repo) UpdateProperty(ctx context.Context, p domain.Property) error {
	args := append(propertyArgs(p), p.ID)
	if _, err := r.db.ExecContext(ctx, updatePropertySQL, args...); err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicateCode
		}
		return err
	}
	return nil
}

// DeleteProperty removes the property and its dependent rows in one transaction.
func (r *Repo) DeleteProperty(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteImagesSQL, id); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteInfrastructureSQL, id); err != nil {
		return fmt.Errorf("delete infrastructure: %w", err)
	}
	res, err := tx.ExecContext(ctx, deletePropertySQL, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

func (r *Repo) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.ExecContext(ctx, setActiveSQL, active, id)
	return err
}

func (r *Repo) SetHighlight(ctx context.Context, id int64, highlight bool) error {
	_, err := r.db.ExecContext(ctx, setHighlightSQL, highlight, id)
	return err
}

func (r *Repo) InsertImages(ctx context.Context, propertyID int64, imgs []domain.Image) error {
	if len(imgs) == 0 {
		return nil
	}
	values := make([]string, 0, len(imgs))
	args := make([]any, 0, len(imgs)*5)
	for _, img := range imgs {
		values = append(values, "(?,?,?,?,?)")
		args = append(args, propertyID, img.URL, img.Name, string(img.Type), img.Highlight)
	}
	_, err := r.db.ExecContext(ctx, insertImagesPrefix+strings.Join(values, ","), args...)
	return err
}

func infrastructureArgs(propertyID int64, in domain.Infrastructure) []any {
	args := []any{propertyID}
	for _, v := range in.Values() {
		args = append(args, v)
	}
	return args
}

func (r *Repo) CreateInfrastructure(ctx context.Context, propertyID int64, in domain.Infrastructure) error {
	_, err := r.db.ExecContext(ctx, insertInfrastructureSQL, infrastructureArgs(propertyID, in)...)
	return err
}

func (r *Repo) UpsertInfrastructure(ctx context.Context, propertyID int64, in domain.Infrastructure) error {
	_, err := r.db.ExecContext(ctx, upsertInfrastructureSQL, infrastructureArgs(propertyID, in)...)
	return err
}

// SetImageHighlight locks the property row, then clears every highlight of
// the property and sets imageID in a single statement.
func (r *Repo) SetImageHighlight(ctx context.Context, propertyID, imageID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var locked int64
	if err := tx.QueryRowContext(ctx, lockPropertySQL, propertyID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock property: %w", err)
	}
	var one int
	if err := tx.QueryRowContext(ctx, imageBelongsSQL, imageID, propertyID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("check image: %w", err)
	}
	if _, err := tx.ExecContext(ctx, setImageHighlightSQL, imageID, propertyID); err != nil {
		return fmt.Errorf("set highlight: %w", err)
	}
	return tx.Commit()
}

// ---- reads ----

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(s scanner) (domain.Property, error) {
	var p domain.Property
	var (
		ptype, purpose                               string
		sale, rent, daily, condo, iptu, total, built sql.NullFloat64
		beds, suites, baths, parking, year, floor    sql.NullInt64
		description                                  sql.NullString
	)
	if err := s.Scan(
		&p.ID, &p.Code, &p.Title, &ptype, &purpose,
		&sale, &rent, &daily, &condo, &iptu,
		&p.AcceptsFinancing, &p.AcceptsExchange, &total, &built,
		&beds, &suites, &baths, &parking,
		&year, &floor, &p.Neighborhood, &p.Location, &description,
		&p.Active, &p.Highlight, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return domain.Property{}, err
	}
	p.PropertyType = domain.PropertyType(ptype)
	p.Purpose = domain.Purpose(purpose)
	p.SalePrice, p.RentalPrice, p.DailyPrice = nullF64(sale), nullF64(rent), nullF64(daily)
	p.CondominiumFee, p.IPTUValue = nullF64(condo), nullF64(iptu)
	p.TotalArea, p.BuiltArea = nullF64(total), nullF64(built)
	p.Bedrooms, p.Suites, p.Bathrooms = nullInt(beds), nullInt(suites), nullInt(baths)
	p.ParkingSpots, p.ConstructionYear, p.Floor = nullInt(parking), nullInt(year), nullInt(floor)
	p.Description = description.String
	p.Images = []domain.Image{}
	return p, nil
}

func nullF64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (domain.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Property{}, domain.ErrNotFound
		}
		return domain.Property{}, err
	}
	ps := []domain.Property{p}
	if err := r.loadRelations(ctx, ps); err != nil {
		return domain.Property{}, err
	}
	return ps[0], nil
}

func (r *Repo) GetPropertyByID(ctx context.Context, id int64) (domain.Property, error) {
	return r.getOne(ctx, getPropertyByIDSQL, id)
}

func (r *Repo) GetPropertyByCode(ctx context.Context, code string) (domain.Property, error) {
	return r.getOne(ctx, getPropertyByCodeSQL, code)
}

func (r *Repo) GetImage(ctx context.Context, id int64) (domain.Image, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, getImageSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Image{}, domain.ErrNotFound
	}
	return img, err
}

func scanImage(s scanner) (domain.Image, error) {
	var img domain.Image
	var typ string
	if err := s.Scan(&img.ID, &img.PropertyID, &img.URL, &img.Name, &typ, &img.Highlight); err != nil {
		return domain.Image{}, err
	}
	img.Type = domain.MediaType(typ)
	return img, nil
}

func (r *Repo) ListProperties(ctx context.Context) ([]domain.Property, error) {
	return r.FindProperties(ctx, domain.Predicate{}, domain.PageQuery{})
}

// FindProperties returns matching properties, highlighted and newest first.
// A zero Limit means no limit.
func (r *Repo) FindProperties(ctx context.Context, where domain.Predicate, pg domain.PageQuery) ([]domain.Property, error) {
	cond, args, err := renderWhere(where)
	if err != nil {
		return nil, err
	}
	q := selectPropertiesSQL + " WHERE " + cond + listingOrderSQL
	if pg.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, pg.Limit, pg.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountProperties(ctx context.Context, where domain.Predicate) (int, error) {
	cond, args, err := renderWhere(where)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, countPropertiesSQL+" WHERE "+cond, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// loadRelations fills images and infrastructure for a page of properties
// with one query each.
func (r *Repo) loadRelations(ctx context.Context, ps []domain.Property) error {
	if len(ps) == 0 {
		return nil
	}
	idx := make(map[int64]int, len(ps))
	args := make([]any, len(ps))
	for i, p := range ps {
		idx[p.ID] = i
		args[i] = p.ID
	}
	in := "(" + strings.TrimSuffix(strings.Repeat("?,", len(ps)), ",") + ")"

	rows, err := r.db.QueryContext(ctx, imagesForPrefix+in+" ORDER BY id", args...)
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return err
		}
		i := idx[img.PropertyID]
		ps[i].Images = append(ps[i].Images, img)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	infraRows, err := r.db.QueryContext(ctx, infrastructureForPrefix+in, args...)
	if err != nil {
		return fmt.Errorf("load infrastructure: %w", err)
	}
	defer infraRows.Close()
	for infraRows.Next() {
		var id int64
		var infra domain.Infrastructure
		if err := infraRows.Scan(append([]any{&id}, infra.Pointers()...)...); err != nil {
			return err
		}
		ps[idx[id]].Infrastructure = &infra
	}
	return infraRows.Err()
}
