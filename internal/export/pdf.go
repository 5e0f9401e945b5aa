package export

import (
	"io"
	"strconv"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/go-pdf/fpdf"
)

// KEW.PS-8 layout, millimetres on A4 portrait.
const (
	fontFamily = "Helvetica"

	sideMargin   = 7.0
	formHeaderY  = 15.0
	titleY       = 25.0
	tableTopY    = 30.0
	continueTopY = 15.0
	bottomMargin = 50.0

	tableFontSize = 10.0
	cellPadding   = 3.0
	minRowHeight  = 9.0
	lineWidth     = 0.2
	thickWidth    = 0.8
	thickColumn   = 4

	signFontSize = 9.0
)

var (
	tableHeader  = []string{"Bil", "Perihal stok", "Kuantiti", "Catatan", "Kuantiti Diluluskan", "Catatan"}
	columnWidths = []float64{11, 78, 29, 25, 29, 25}
	columnAlign  = []string{"C", "L", "C", "L", "C", "L"}
)

type form struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	signer Signer
	width  float64
	height float64
	// signatures counts drawn signature blocks, one per page
	signatures int
}

func newForm(signer Signer) *form {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(sideMargin, continueTopY, sideMargin)
	pdf.SetAutoPageBreak(false, bottomMargin)
	pdf.SetLineWidth(lineWidth)
	pdf.SetDrawColor(0, 0, 0)
	w, h := pdf.GetPageSize()

	f := &form{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), signer: signer, width: w, height: h}
	pdf.SetFooterFunc(f.signatureBlock)
	return f
}

func (f *form) textCentered(s string, y float64) {
	s = f.tr(s)
	f.pdf.Text(f.width/2-f.pdf.GetStringWidth(s)/2, y, s)
}

func (f *form) textRight(s string, x, y float64) {
	s = f.tr(s)
	f.pdf.Text(x-f.pdf.GetStringWidth(s), y, s)
}

func (f *form) formHeader(source string) {
	f.pdf.SetFont(fontFamily, "I", 8)
	f.pdf.Text(sideMargin, formHeaderY, f.tr("Pekeliling Perbendaharaan Malaysia"))
	f.pdf.SetFont(fontFamily, "", 8)
	f.textCentered("AM 6.5 LAMPIRAN B", formHeaderY)
	f.textRight("KEW.PS-8", f.width-sideMargin, formHeaderY)

	f.pdf.SetFont(fontFamily, "B", 12)
	f.textCentered("BORANG PERMOHONAN STOK UBAT ("+source+")", titleY)
}

func (f *form) lineHeight() float64 {
	_, h := f.pdf.GetFontSize()
	return h * 1.15
}

// row draws one table row at y and returns its height.
func (f *form) row(y float64, cells []string, head bool) float64 {
	style := ""
	if head {
		style = "B"
	}
	f.pdf.SetFont(fontFamily, style, tableFontSize)
	lh := f.lineHeight()

	wrapped := make([][]string, len(cells))
	h := minRowHeight
	for i, c := range cells {
		for _, part := range f.pdf.SplitLines([]byte(f.tr(c)), columnWidths[i]-2*cellPadding) {
			wrapped[i] = append(wrapped[i], string(part))
		}
		h = max(h, float64(len(wrapped[i]))*lh+2*cellPadding)
	}

	x := sideMargin
	for i := range cells {
		w := columnWidths[i]
		f.pdf.SetLineWidth(lineWidth)
		f.pdf.Rect(x, y, w, h, "D")

		align := columnAlign[i]
		if head {
			align = "C"
		}
		f.pdf.SetXY(x+cellPadding, y+cellPadding)
		for _, ln := range wrapped[i] {
			f.pdf.CellFormat(w-2*cellPadding, lh, ln, "", 2, align, false, 0, "")
			f.pdf.SetX(x + cellPadding)
		}

		if i == thickColumn {
			f.pdf.SetLineWidth(thickWidth)
			f.pdf.Line(x, y, x, y+h)
			f.pdf.SetLineWidth(lineWidth)
		}
		x += w
	}
	return h
}

func (f *form) signatureBlock() {
	f.signatures++
	y := f.height - bottomMargin
	left, middle, right := 15.0, f.width/2-20, f.width-60

	f.pdf.SetFont(fontFamily, "", signFontSize)
	col := func(x float64, title, name, post string) {
		f.pdf.Text(x, y, f.tr(title))
		f.pdf.Text(x, y+15, f.tr("(Tandatangan)"))
		f.pdf.Text(x, y+20, f.tr("Nama : "+name))
		f.pdf.Text(x, y+25, f.tr("Jawatan : "+post))
		f.pdf.Text(x, y+30, f.tr("Tarikh :"))
	}
	col(left, "Pemohon", f.signer.Name, f.signer.Title)
	col(middle, "Pegawai Pelulus", "", "")
	col(right, "Penerima", "", "")
}

// bucket lays out one source starting on a fresh page.
func (f *form) bucket(b cart.Bucket) {
	f.pdf.AddPage()
	f.formHeader(string(b.Source))

	limit := f.height - bottomMargin
	y := tableTopY
	y += f.row(y, tableHeader, true)

	for i, l := range b.Lines {
		cells := []string{strconv.Itoa(i + 1), l.Item.Name, l.Qty, "", "", ""}
		if y+f.peekHeight(cells) > limit {
			f.pdf.AddPage()
			y = continueTopY
			y += f.row(y, tableHeader, true)
		}
		y += f.row(y, cells, false)
	}
}

func (f *form) peekHeight(cells []string) float64 {
	f.pdf.SetFont(fontFamily, "", tableFontSize)
	lh := f.lineHeight()
	h := minRowHeight
	for i, c := range cells {
		n := len(f.pdf.SplitLines([]byte(f.tr(c)), columnWidths[i]-2*cellPadding))
		h = max(h, float64(n)*lh+2*cellPadding)
	}
	return h
}

func (f *form) output(w io.Writer) error {
	if err := f.pdf.Error(); err != nil {
		return err
	}
	return f.pdf.Output(w)
}

// WritePDF renders the form for a single bucket.
func WritePDF(w io.Writer, b cart.Bucket, signer Signer) error {
	if len(b.Lines) == 0 {
		return ErrNothingToExport
	}
	f := newForm(signer)
	f.bucket(b)
	return f.output(w)
}

// WriteCombinedPDF renders every non-empty bucket into one document, each
// bucket starting on its own page.
func WriteCombinedPDF(w io.Writer, c cart.Cart, signer Signer) error {
	buckets := c.NonEmpty()
	if len(buckets) == 0 {
		return ErrNothingToExport
	}
	f := newForm(signer)
	for _, b := range buckets {
		f.bucket(b)
	}
	return f.output(w)
}
