// Package export renders grouped cart lines as a spreadsheet or as the
// printable KEW.PS-8 requisition form.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
)

var ErrNothingToExport = errors.New("export: nothing to export")

// Columns picks the spreadsheet column set.
type Columns string

const (
	ColumnsBasic    Columns = "basic"
	ColumnsDetailed Columns = "detailed"
)

func ParseColumns(s string) Columns {
	if Columns(s) == ColumnsBasic {
		return ColumnsBasic
	}
	return ColumnsDetailed
}

// Signer fills the requester column of the signature block.
type Signer struct {
	Name  string
	Title string
}

const dateLayout = "2006-01-02"

func CartFilename(day time.Time) string {
	return fmt.Sprintf("Indent_Cart_%s.xlsx", day.Format(dateLayout))
}

func PDFFilename(src catalog.Source, day time.Time) string {
	return fmt.Sprintf("Indent_ED_%s_%s.pdf", src, day.Format(dateLayout))
}

func CombinedPDFFilename(day time.Time) string {
	return fmt.Sprintf("Indent_ED_%s.pdf", day.Format(dateLayout))
}
