package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/infra/metrics"
)

// Kind selects which documents WriteAll produces.
type Kind string

const (
	KindXLSX     Kind = "xlsx"
	KindPDF      Kind = "pdf"      // one file per source
	KindCombined Kind = "combined" // one file, a page run per source
)

// ParseKind accepts the names used on the command line.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindXLSX, KindPDF, KindCombined:
		return k, nil
	}
	return "", fmt.Errorf("unknown export kind %q", s)
}

type Writer struct {
	Dir     string
	Columns Columns
	Signer  Signer
	Log     *slog.Logger
}

// WriteAll renders the requested kinds for c into w.Dir, dated day. Files
// already written stay on disk when a later one fails; the failures come
// back as one error.
func (w *Writer) WriteAll(c cart.Cart, day time.Time, kinds ...Kind) ([]string, error) {
	if len(c.NonEmpty()) == 0 {
		return nil, ErrNothingToExport
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("export dir: %w", err)
	}

	type job struct {
		kind   string
		name   string
		render func(*bytes.Buffer) error
	}
	var jobs []job
	for _, k := range kinds {
		switch k {
		case KindXLSX:
			jobs = append(jobs, job{"xlsx", CartFilename(day), func(buf *bytes.Buffer) error {
				return WriteWorkbook(buf, c, w.Columns)
			}})
		case KindPDF:
			for _, b := range c.NonEmpty() {
				jobs = append(jobs, job{"pdf", PDFFilename(b.Source, day), func(buf *bytes.Buffer) error {
					return WritePDF(buf, b, w.Signer)
				}})
			}
		case KindCombined:
			jobs = append(jobs, job{"pdf", CombinedPDFFilename(day), func(buf *bytes.Buffer) error {
				return WriteCombinedPDF(buf, c, w.Signer)
			}})
		}
	}

	var (
		written []string
		errs    []error
	)
	for _, j := range jobs {
		path := filepath.Join(w.Dir, j.name)
		buf := &bytes.Buffer{}
		err := j.render(buf)
		if err == nil {
			err = os.WriteFile(path, buf.Bytes(), 0o644)
		}
		if err != nil {
			metrics.ExportDocuments.WithLabelValues(j.kind, "error").Inc()
			w.Log.Error("export failed", "file", j.name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", j.name, err))
			continue
		}
		metrics.ExportDocuments.WithLabelValues(j.kind, "ok").Inc()
		w.Log.Info("export written", "file", path)
		written = append(written, path)
	}

	if len(errs) > 0 {
		return written, fmt.Errorf("export: %d of %d documents failed: %w", len(errs), len(jobs), errors.Join(errs...))
	}
	return written, nil
}
