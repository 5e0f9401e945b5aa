package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/export"
	"github.com/Spok95/pharmacy-indent/internal/infra/metrics"
	"github.com/Spok95/pharmacy-indent/internal/locator"
)

type Items interface {
	Get(ctx context.Context, id int64) (*catalog.Item, error)
	Search(ctx context.Context, q string, limit int) ([]catalog.Item, error)
	Create(ctx context.Context, it catalog.Item) (*catalog.Item, error)
	Update(ctx context.Context, it catalog.Item) (*catalog.Item, error)
	Delete(ctx context.Context, id int64) error
}

type Catalogue interface {
	Query(q, section string, page, pageSize int, mode locator.ViewMode) locator.View
	Dispatch(e locator.Event) locator.State
}

type Cart interface {
	Load(ctx context.Context) (cart.Cart, error)
	Add(ctx context.Context, itemID int64, qty string) (*indent.Request, error)
	UpdateLine(ctx context.Context, id int64, qty string, patch indent.ItemPatch) (cart.Cart, error)
	Remove(ctx context.Context, id int64, confirmed bool) (cart.Cart, error)
	Approve(ctx context.Context, confirmed bool) (int, cart.Cart, error)
	Dates(ctx context.Context) ([]string, error)
	Day(ctx context.Context, date string) (cart.Cart, error)
	Location() *time.Location
}

// Handler serves the JSON API.
type Handler struct {
	Items     Items
	Catalogue Catalogue
	Cart      Cart
	Columns   export.Columns
	Signer    export.Signer
	Log       *slog.Logger
	// Now is swapped in tests
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) Register(mux *http.ServeMux) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, instrument(pattern, fn))
	}

	route("GET /api/items", h.listItems)
	route("GET /api/items/search", h.searchItems)
	route("GET /api/items/{id}", h.getItem)
	route("POST /api/items", h.createItem)
	route("PUT /api/items/{id}", h.updateItem)
	route("DELETE /api/items/{id}", h.deleteItem)
	route("GET /api/sections", h.sections)

	route("GET /api/cart", h.getCart)
	route("POST /api/cart", h.addToCart)
	route("PATCH /api/cart/{id}", h.updateLine)
	route("DELETE /api/cart/{id}", h.removeLine)
	route("POST /api/cart/approve", h.approve)
	route("GET /api/cart/export.xlsx", h.cartXLSX)
	route("GET /api/cart/export.pdf", h.cartPDF)

	route("GET /api/history/dates", h.historyDates)
	route("GET /api/history", h.historyDay)
	route("GET /api/history/export.xlsx", h.historyXLSX)
	route("GET /api/history/export.pdf", h.historyPDF)
}

// ---- catalogue ----

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	size, err := queryInt(r, "page_size")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.Catalogue.Query(q.Get("q"), q.Get("section"), page, size, locator.ViewMode(q.Get("view"))))
}

func (h *Handler) sections(w http.ResponseWriter, _ *http.Request) {
	v := h.Catalogue.Query("", locator.AllSections, 1, 0, "")
	writeJSON(w, http.StatusOK, map[string]any{"sections": v.Sections})
}

func (h *Handler) searchItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Items.Search(r.Context(), r.URL.Query().Get("q"), catalog.DefaultSearchLimit)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if items == nil {
		items = []catalog.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	it, err := h.Items.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var in catalog.Item
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	it, err := h.Items.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.Catalogue.Dispatch(locator.ItemUpserted{Item: *it})
	h.Log.Info("item created", "item_id", it.ID, "name", it.Name)
	writeJSON(w, http.StatusCreated, it)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var in catalog.Item
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	in.ID = id
	it, err := h.Items.Update(r.Context(), in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.Catalogue.Dispatch(locator.ItemUpserted{Item: *it})
	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if !confirmed(r) {
		writeError(w, h.Log, cart.ErrNotConfirmed)
		return
	}
	if err := h.Items.Delete(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.Catalogue.Dispatch(locator.ItemDeleted{ID: id})
	h.Log.Info("item deleted", "item_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ---- cart ----

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cart.Load(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type addRequest struct {
	ItemID   int64  `json:"item_id"`
	Quantity string `json:"quantity"`
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var in addRequest
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if in.ItemID <= 0 {
		writeError(w, h.Log, &badRequest{field: "item_id", msg: "required"})
		return
	}
	req, err := h.Cart.Add(r.Context(), in.ItemID, in.Quantity)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

type lineUpdate struct {
	Quantity string `json:"quantity"`
	indent.ItemPatch
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var in lineUpdate
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	in.ItemPatch.Normalize()
	c, err := h.Cart.UpdateLine(r.Context(), id, in.Quantity, in.ItemPatch)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	c, err := h.Cart.Remove(r.Context(), id, confirmed(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	n, c, err := h.Cart.Approve(r.Context(), confirmed(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"approved": n, "cart": c})
}

// ---- history ----

func (h *Handler) historyDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.Cart.Dates(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

func (h *Handler) loadDay(r *http.Request) (cart.Cart, time.Time, error) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return cart.Cart{}, time.Time{}, &badRequest{field: "date", msg: "required"}
	}
	day, err := cart.ParseDate(date, h.Cart.Location())
	if err != nil {
		return cart.Cart{}, time.Time{}, err
	}
	c, err := h.Cart.Day(r.Context(), date)
	return c, day, err
}

func (h *Handler) historyDay(w http.ResponseWriter, r *http.Request) {
	c, _, err := h.loadDay(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ---- exports ----

const (
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfType  = "application/pdf"
)

func (h *Handler) cartXLSX(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cart.Load(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.sendXLSX(w, c, h.now().In(h.Cart.Location()))
}

func (h *Handler) cartPDF(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cart.Load(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.sendPDF(w, r, c, h.now().In(h.Cart.Location()))
}

func (h *Handler) historyXLSX(w http.ResponseWriter, r *http.Request) {
	c, day, err := h.loadDay(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.sendXLSX(w, c, day)
}

func (h *Handler) historyPDF(w http.ResponseWriter, r *http.Request) {
	c, day, err := h.loadDay(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.sendPDF(w, r, c, day)
}

func (h *Handler) sendXLSX(w http.ResponseWriter, c cart.Cart, day time.Time) {
	buf := &bytes.Buffer{}
	if err := export.WriteWorkbook(buf, c, h.Columns); err != nil {
		metrics.ExportDocuments.WithLabelValues("xlsx", "error").Inc()
		writeError(w, h.Log, err)
		return
	}
	metrics.ExportDocuments.WithLabelValues("xlsx", "ok").Inc()
	sendFile(w, xlsxType, export.CartFilename(day), buf)
}

// sendPDF renders one source when ?source= is given, otherwise every
// non-empty source in one document.
func (h *Handler) sendPDF(w http.ResponseWriter, r *http.Request, c cart.Cart, day time.Time) {
	buf := &bytes.Buffer{}
	var (
		name string
		err  error
	)
	if s := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("source"))); s != "" {
		src := catalog.Source(s)
		if !src.Known() {
			writeError(w, h.Log, &badRequest{field: "source", msg: fmt.Sprintf("unknown source %q", s)})
			return
		}
		name = export.PDFFilename(src, day)
		err = export.WritePDF(buf, c.Bucket(src), h.Signer)
	} else {
		name = export.CombinedPDFFilename(day)
		err = export.WriteCombinedPDF(buf, c, h.Signer)
	}
	if err != nil {
		metrics.ExportDocuments.WithLabelValues("pdf", "error").Inc()
		writeError(w, h.Log, err)
		return
	}
	metrics.ExportDocuments.WithLabelValues("pdf", "ok").Inc()
	sendFile(w, pdfType, name, buf)
}

func sendFile(w http.ResponseWriter, contentType, name string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
