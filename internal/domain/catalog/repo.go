package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const itemColumns = `id, name, type, section, "row", bin, location_code, min_qty, max_qty,
	COALESCE(indent_source,''), remarks, image_url, created_at, updated_at`

// DefaultSearchLimit caps quick-add search results.
const DefaultSearchLimit = 20

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(
		&it.ID,
		&it.Name,
		&it.Type,
		&it.Section,
		&it.Row,
		&it.Bin,
		&it.LocationCode,
		&it.MinQty,
		&it.MaxQty,
		&it.Source,
		&it.Remarks,
		&it.ImageURL,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

func collect(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func nullSource(s Source) any {
	if s == "" {
		return nil
	}
	return string(s)
}

// List returns the whole catalogue ordered by name.
func (r *Repo) List(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) Get(ctx context.Context, id int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id)
	it, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

// Search matches part of the name, case-insensitively (quick add).
func (r *Repo) Search(ctx context.Context, q string, limit int) ([]Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items
		WHERE name ILIKE $1
		ORDER BY name, id
		LIMIT $2
	`, "%"+escapeLike(q)+"%", limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *Repo) Create(ctx context.Context, it Item) (*Item, error) {
	it.Normalize()
	if err := it.Validate(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO inventory_items (name, type, section, "row", bin, min_qty, max_qty, indent_source, remarks, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+itemColumns,
		it.Name, string(it.Type), it.Section, it.Row, it.Bin, it.MinQty, it.MaxQty, nullSource(it.Source), it.Remarks, it.ImageURL)
	return scanItem(row)
}

func (r *Repo) Update(ctx context.Context, it Item) (*Item, error) {
	it.Normalize()
	if err := it.Validate(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE inventory_items SET
			name=$2, type=$3, section=$4, "row"=$5, bin=$6,
			min_qty=$7, max_qty=$8, indent_source=$9, remarks=$10, image_url=$11,
			updated_at=now()
		WHERE id=$1
		RETURNING `+itemColumns,
		it.ID, it.Name, string(it.Type), it.Section, it.Row, it.Bin, it.MinQty, it.MaxQty, nullSource(it.Source), it.Remarks, it.ImageURL)
	out, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

// Delete removes the item; its indent requests go with it (ON DELETE CASCADE).
func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
