package indent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const lineSelect = `
	SELECT r.id, r.item_id, r.requested_qty, r.status, r.created_at, r.approved_at,
	       i.id, i.name, i.type, i.section, i."row", i.bin, i.location_code, i.min_qty, i.max_qty,
	       COALESCE(i.indent_source,''), i.remarks, i.image_url, i.created_at, i.updated_at
	FROM indent_requests r
	JOIN inventory_items i ON i.id = r.item_id
`

const fkViolation = "23503"

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func scanLines(rows pgx.Rows) ([]Line, error) {
	defer rows.Close()
	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ID, &l.ItemID, &l.Qty, &l.Status, &l.CreatedAt, &l.ApprovedAt,
			&l.Item.ID, &l.Item.Name, &l.Item.Type, &l.Item.Section, &l.Item.Row, &l.Item.Bin,
			&l.Item.LocationCode, &l.Item.MinQty, &l.Item.MaxQty, &l.Item.Source,
			&l.Item.Remarks, &l.Item.ImageURL, &l.Item.CreatedAt, &l.Item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Create puts a Pending request for itemID into the cart.
func (r *Repo) Create(ctx context.Context, itemID int64, qty string) (*Request, error) {
	if err := ValidateQty(qty); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO indent_requests (item_id, requested_qty, status)
		VALUES ($1,$2,'Pending')
		RETURNING id, item_id, requested_qty, status, created_at, approved_at
	`, itemID, strings.TrimSpace(qty))

	var req Request
	err := row.Scan(&req.ID, &req.ItemID, &req.Qty, &req.Status, &req.CreatedAt, &req.ApprovedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPending returns the cart, newest first.
func (r *Repo) ListPending(ctx context.Context) ([]Line, error) {
	rows, err := r.pool.Query(ctx, lineSelect+`
		WHERE r.status = 'Pending'
		ORDER BY r.created_at DESC, r.id DESC
	`)
	if err != nil {
		return nil, err
	}
	return scanLines(rows)
}

// UpdateLine writes the request quantity and, when present, the item-level
// fields in one transaction.
func (r *Repo) UpdateLine(ctx context.Context, id int64, qty string, patch ItemPatch) error {
	if err := ValidateQty(qty); err != nil {
		return err
	}
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var itemID int64
	err = tx.QueryRow(ctx, `
		UPDATE indent_requests SET requested_qty=$2
		WHERE id=$1 AND status='Pending'
		RETURNING item_id
	`, id, strings.TrimSpace(qty)).Scan(&itemID)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missingReason(ctx, tx, id)
	}
	if err != nil {
		return err
	}

	if !patch.Empty() {
		set, args := patchSet(patch)
		args = append([]any{itemID}, args...)
		if _, err = tx.Exec(ctx, `UPDATE inventory_items SET `+set+`, updated_at=now() WHERE id=$1`, args...); err != nil {
			return fmt.Errorf("update item %d: %w", itemID, err)
		}
	}

	return tx.Commit(ctx)
}

// patchSet builds the SET list; placeholders start at $2 ($1 is the item id).
func patchSet(p ItemPatch) (string, []any) {
	var (
		cols []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s=$%d", col, len(args)+1))
	}
	if p.MinQty != nil {
		add("min_qty", *p.MinQty)
	}
	if p.MaxQty != nil {
		add("max_qty", *p.MaxQty)
	}
	if p.Source != nil {
		var src any
		if *p.Source != "" {
			src = string(*p.Source)
		}
		add("indent_source", src)
	}
	if p.Remarks != nil {
		add("remarks", strings.TrimSpace(*p.Remarks))
	}
	return strings.Join(cols, ", "), args
}

func (r *Repo) missingReason(ctx context.Context, q pgx.Tx, id int64) error {
	var st Status
	err := q.QueryRow(ctx, `SELECT status FROM indent_requests WHERE id=$1`, id).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrNotPending
}

// DeletePending removes a request that is still in the cart.
func (r *Repo) DeletePending(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM indent_requests WHERE id=$1 AND status='Pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var st Status
	err = r.pool.QueryRow(ctx, `SELECT status FROM indent_requests WHERE id=$1`, id).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrNotPending
}

// ApprovePending flips every Pending row to Approved in a single statement
// and returns exactly the rows it flipped, joined with their items. Rows
// inserted after the statement snapshot stay Pending.
func (r *Repo) ApprovePending(ctx context.Context) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `
		WITH r AS (
			UPDATE indent_requests SET status='Approved', approved_at=now()
			WHERE status='Pending'
			RETURNING *
		)
		SELECT r.id, r.item_id, r.requested_qty, r.status, r.created_at, r.approved_at,
		       i.id, i.name, i.type, i.section, i."row", i.bin, i.location_code, i.min_qty, i.max_qty,
		       COALESCE(i.indent_source,''), i.remarks, i.image_url, i.created_at, i.updated_at
		FROM r
		JOIN inventory_items i ON i.id = r.item_id
		ORDER BY r.created_at DESC, r.id DESC
	`)
	if err != nil {
		return nil, err
	}
	return scanLines(rows)
}

// zoneName is the name Postgres gets for loc. Go's "Local" means nothing to
// the server, so it is sent as UTC.
func zoneName(loc *time.Location) string {
	if loc == nil || loc == time.Local || loc.String() == "Local" {
		return "UTC"
	}
	return loc.String()
}

// ApprovedDates lists the days (YYYY-MM-DD in loc) that have approved requests, newest first.
func (r *Repo) ApprovedDates(ctx context.Context, loc *time.Location) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT to_char(created_at AT TIME ZONE $1, 'YYYY-MM-DD') AS d
		FROM indent_requests
		WHERE status='Approved'
		ORDER BY d DESC
	`, zoneName(loc))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListApprovedOn returns approved requests created on day (interpreted in loc).
func (r *Repo) ListApprovedOn(ctx context.Context, day time.Time, loc *time.Location) ([]Line, error) {
	start, end := DayBounds(day, loc)
	rows, err := r.pool.Query(ctx, lineSelect+`
		WHERE r.status = 'Approved' AND r.created_at >= $1 AND r.created_at < $2
		ORDER BY r.created_at DESC, r.id DESC
	`, start, end)
	if err != nil {
		return nil, err
	}
	return scanLines(rows)
}

// DayBounds returns [start of day, start of next day) in loc.
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
