package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/infra/metrics"
)

// ErrNotConfirmed guards the destructive actions.
var ErrNotConfirmed = errors.New("cart: action needs confirmation")

const DateLayout = "2006-01-02"

type Store interface {
	Create(ctx context.Context, itemID int64, qty string) (*indent.Request, error)
	ListPending(ctx context.Context) ([]indent.Line, error)
	UpdateLine(ctx context.Context, id int64, qty string, patch indent.ItemPatch) error
	DeletePending(ctx context.Context, id int64) error
	ApprovePending(ctx context.Context) ([]indent.Line, error)
	ApprovedDates(ctx context.Context, loc *time.Location) ([]string, error)
	ListApprovedOn(ctx context.Context, day time.Time, loc *time.Location) ([]indent.Line, error)
}

// Approval describes one bulk approve. IDs and Cart both come from the rows
// the database actually flipped.
type Approval struct {
	IDs  []int64
	Cart Cart
	At   time.Time
}

// Observer hears about cart mutations after they are committed. Observers
// must not block for long; failures are theirs to log.
type Observer interface {
	RequestCreated(ctx context.Context, req indent.Request)
	RequestDeleted(ctx context.Context, id int64)
	CartApproved(ctx context.Context, a Approval)
}

type Service struct {
	store     Store
	observers []Observer
	loc       *time.Location
	log       *slog.Logger
	now       func() time.Time
}

func NewService(store Store, loc *time.Location, log *slog.Logger, observers ...Observer) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, observers: observers, loc: loc, log: log, now: time.Now}
}

// Load returns the pending cart grouped by source.
func (s *Service) Load(ctx context.Context) (Cart, error) {
	lines, err := s.store.ListPending(ctx)
	if err != nil {
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	c := Group(lines)
	for _, b := range c.Buckets {
		if b.Defaulted > 0 {
			s.log.Debug("cart lines defaulted to bucket", "source", b.Source, "count", b.Defaulted)
		}
	}
	return c, nil
}

// Add puts a Pending request for itemID into the cart.
func (s *Service) Add(ctx context.Context, itemID int64, qty string) (*indent.Request, error) {
	req, err := s.store.Create(ctx, itemID, qty)
	if err != nil {
		return nil, err
	}
	s.log.Info("indent request created", "request_id", req.ID, "item_id", itemID, "qty", req.Qty)
	for _, o := range s.observers {
		o.RequestCreated(ctx, *req)
	}
	return req, nil
}

// Save writes an edit form and returns the refreshed cart.
func (s *Service) Save(ctx context.Context, e Edit) (Cart, error) {
	if err := s.store.UpdateLine(ctx, e.RequestID, e.Qty, e.Patch()); err != nil {
		return Cart{}, err
	}
	return s.Load(ctx)
}

// UpdateLine is Save for callers that already hold a patch.
func (s *Service) UpdateLine(ctx context.Context, id int64, qty string, patch indent.ItemPatch) (Cart, error) {
	if err := s.store.UpdateLine(ctx, id, qty, patch); err != nil {
		return Cart{}, err
	}
	return s.Load(ctx)
}

// Remove deletes a Pending request.
func (s *Service) Remove(ctx context.Context, id int64, confirmed bool) (Cart, error) {
	if !confirmed {
		return Cart{}, ErrNotConfirmed
	}
	if err := s.store.DeletePending(ctx, id); err != nil {
		return Cart{}, err
	}
	s.log.Info("indent request removed", "request_id", id)
	for _, o := range s.observers {
		o.RequestDeleted(ctx, id)
	}
	return s.Load(ctx)
}

// Approve flips every Pending request to Approved and returns how many
// moved along with the (now empty) cart.
func (s *Service) Approve(ctx context.Context, confirmed bool) (int, Cart, error) {
	if !confirmed {
		return 0, Cart{}, ErrNotConfirmed
	}
	approved, err := s.store.ApprovePending(ctx)
	if err != nil {
		return 0, Cart{}, fmt.Errorf("approve cart: %w", err)
	}
	metrics.CartApprovals.Add(float64(len(approved)))
	s.log.Info("indent approved", "requests", len(approved))

	if len(approved) > 0 {
		ids := make([]int64, len(approved))
		for i, l := range approved {
			ids[i] = l.ID
		}
		a := Approval{IDs: ids, Cart: Group(approved), At: s.now()}
		for _, o := range s.observers {
			o.CartApproved(ctx, a)
		}
	}

	c, err := s.Load(ctx)
	return len(approved), c, err
}

// Dates lists the days with approved requests, newest first.
func (s *Service) Dates(ctx context.Context) ([]string, error) {
	return s.store.ApprovedDates(ctx, s.loc)
}

// Day returns the requests approved for date (YYYY-MM-DD, local time),
// grouped like the cart.
func (s *Service) Day(ctx context.Context, date string) (Cart, error) {
	day, err := ParseDate(date, s.loc)
	if err != nil {
		return Cart{}, err
	}
	lines, err := s.store.ListApprovedOn(ctx, day, s.loc)
	if err != nil {
		return Cart{}, fmt.Errorf("load approved %s: %w", date, err)
	}
	return Group(lines), nil
}

// ParseDate reads YYYY-MM-DD in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, &indent.ValidationError{Field: "date", Msg: "expected YYYY-MM-DD"}
	}
	return day, nil
}

// Location is the zone used for history days and export dates.
func (s *Service) Location() *time.Location { return s.loc }
