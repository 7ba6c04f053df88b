package assembler

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"goaliegen/internal/adapters/imaging"
	"goaliegen/internal/domain/document"
)

// A4 portrait, millimetres.
const (
	marginLeft  = 20.0
	indentLeft  = 25.0
	ruleRight   = 190.0
	fontFamily  = "Helvetica"
	logEntries  = 4
	logPages    = 6
	entryHeight = 65.0
)

// pdfDoc wraps gofpdf with the few primitives the writers need.
type pdfDoc struct {
	pdf   *gofpdf.Fpdf
	tr    func(string) string
	pageW float64
	pageH float64
	logos int
}

func newPDF(title string, created time.Time) *pdfDoc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("Goalie Gen", true)
	pdf.SetCreationDate(created)
	pdf.SetFont(fontFamily, "", 12)
	pdf.SetDrawColor(0, 0, 0)
	w, h := pdf.GetPageSize()
	return &pdfDoc{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		pageW: w,
		pageH: h,
	}
}

func (d *pdfDoc) page() {
	d.pdf.AddPage()
}

func (d *pdfDoc) font(size float64, style string) {
	d.pdf.SetFont(fontFamily, style, size)
}

func (d *pdfDoc) text(x, y, size float64, s string) {
	d.font(size, "")
	d.pdf.Text(x, y, d.tr(s))
}

func (d *pdfDoc) centered(y, size float64, s string) {
	d.font(size, "")
	s = d.tr(s)
	d.pdf.Text((d.pageW-d.pdf.GetStringWidth(s))/2, y, s)
}

func (d *pdfDoc) rule(x1, x2, y float64) {
	d.pdf.Line(x1, y, x2, y)
}

// image places a JPEG inside the box at (x, y, box, box), keeping its aspect ratio.
func (d *pdfDoc) image(img imaging.Result, x, y, box float64) {
	d.logos++
	name := fmt.Sprintf("logo%d", d.logos)
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))

	w, h := box, box
	if img.Width > img.Height {
		h = box * float64(img.Height) / float64(img.Width)
	} else if img.Height > img.Width {
		w = box * float64(img.Width) / float64(img.Height)
	}
	d.pdf.ImageOptions(name, x+(box-w)/2, y+(box-h)/2, w, h, false, opts, 0, "")
}

func (d *pdfDoc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// uploadedLogo downscales the request image for embedding. ok is false when
// there is no image or it cannot be decoded; the document is then built without it.
func uploadedLogo(req document.Request) (imaging.Result, bool) {
	if req.Image == nil {
		return imaging.Result{}, false
	}
	res, err := imaging.Downscale(req.Image.Data, imaging.MaxDimension)
	if err != nil {
		slog.Warn("logo_skipped", "kind", req.Kind.Kind, "content_type", req.Image.ContentType, "error", err.Error())
		return imaging.Result{}, false
	}
	return res, true
}

func writeDrill(_ document.Request, t Template, created time.Time) ([]byte, error) {
	d := newPDF(t.Title, created)
	d.page()

	d.centered(20, 20, t.Title)
	y := 40.0
	for _, m := range t.Meta {
		d.text(marginLeft, y, 12, m)
		y += 10
	}
	y += 10
	d.text(marginLeft, y, 14, t.Subtitle)
	y += 15

	for _, s := range t.Sections {
		d.text(marginLeft, y, 11, s.Heading)
		y += 10
		for _, p := range s.Paragraphs {
			d.text(marginLeft, y, 11, p)
			y += 10
		}
		for _, b := range s.Bullets {
			d.text(marginLeft, y, 11, "- "+b)
			y += 10
		}
		y += 10
	}
	return d.bytes()
}

func writeTeamPlan(req document.Request, t Template, created time.Time) ([]byte, error) {
	d := newPDF(t.Title+" - "+t.Subtitle, created)
	d.page()

	d.centered(30, 24, t.Title)
	d.centered(45, 18, t.Subtitle)

	metaY := 60.0
	if logo, ok := uploadedLogo(req); ok {
		d.image(logo, 65, 55, 80)
		metaY = 145
	}
	y := metaY
	for _, m := range t.Meta {
		d.text(marginLeft, y, 12, m)
		y += 10
	}

	y = metaY + 40
	for i, s := range t.Sections {
		size := 14.0
		if i == 0 {
			size = 16
		}
		d.text(marginLeft, y, size, s.Heading)
		y += 8
		for _, p := range s.Paragraphs {
			d.text(marginLeft, y, 11, p)
			y += 8
		}
		for _, b := range s.Bullets {
			d.text(indentLeft, y, 10, "- "+b)
			y += 7
		}
		y += 8
	}

	d.page()
	d.centered(20, 18, t.PracticesHeading)
	y = 35
	for i := 1; i <= req.Practices; i++ {
		if y > d.pageH-60 {
			d.page()
			y = 20
		}
		d.text(marginLeft, y, 14, fmt.Sprintf("Practice %d", i))
		y += 8
		for _, line := range t.Practice {
			d.text(indentLeft, y, 10, line)
			y += 6
		}
		y += 6
	}

	d.page()
	y = 20
	for i, s := range t.Closing {
		switch i {
		case 0:
			d.text(marginLeft, y, 16, s.Heading)
			y += 15
		default:
			d.text(marginLeft, y, 11, s.Heading)
			y += 8
		}
		for _, p := range s.Paragraphs {
			d.text(indentLeft, y, 10, p)
			y += 7
		}
	}
	return d.bytes()
}

func writeJournal(req document.Request, t Template, created time.Time) ([]byte, error) {
	d := newPDF(t.Title+" - "+req.GoalieName, created)

	// Cover.
	d.page()
	d.centered(40, 28, t.Title)
	y := 60.0
	for _, m := range t.Meta {
		d.centered(y, 18, m)
		y += 15
	}
	logo, ok := uploadedLogo(req)
	if !ok {
		var err error
		if logo, err = imaging.DefaultLogo(); err != nil {
			slog.Warn("default_logo_unavailable", "error", err.Error())
		} else {
			ok = true
		}
	}
	if ok {
		d.image(logo, 75, 110, 60)
	}

	// Season goals.
	for _, s := range t.Sections {
		d.page()
		d.centered(20, 20, s.Heading)
		for _, p := range s.Paragraphs {
			d.text(marginLeft, 40, 12, p)
		}
		for i := 0; i < s.Lines; i++ {
			ly := 55 + float64(i)*25
			d.text(marginLeft, ly, 12, fmt.Sprintf("%d.", i+1))
			d.rule(30, ruleRight, ly)
			d.rule(30, ruleRight, ly+10)
		}
	}

	// Practice and game log.
	for page := 0; page < logPages; page++ {
		d.page()
		d.centered(15, 16, strings.ReplaceAll(t.PracticesHeading, "{page}", strconv.Itoa(page+1)))
		for entry := 0; entry < logEntries; entry++ {
			writeLogEntry(d, t.Practice, 25+float64(entry)*entryHeight, page*logEntries+entry+1)
		}
	}

	// End of season review.
	d.page()
	y = 40
	for i, s := range t.Closing {
		if i == 0 {
			d.centered(20, 20, s.Heading)
			continue
		}
		d.text(marginLeft, y, 12, s.Heading)
		for j := 0; j < s.Lines; j++ {
			d.rule(marginLeft, ruleRight, y+10+float64(j)*15)
		}
		y += 15 + float64(s.Lines)*15
	}
	return d.bytes()
}

func writeLogEntry(d *pdfDoc, prompts []string, top float64, n int) {
	d.pdf.SetLineWidth(0.5)
	d.pdf.Rect(15, top, 180, entryHeight-2, "D")
	d.pdf.SetLineWidth(0.2)

	d.font(11, "B")
	d.pdf.Text(marginLeft, top+7, fmt.Sprintf("Entry %d", n))

	d.text(marginLeft, top+15, 9, "Date: _______________")
	d.pdf.Rect(80, top+12.5, 3, 3, "D")
	d.text(84.5, top+15, 9, "Practice")
	d.pdf.Rect(100, top+12.5, 3, 3, "D")
	d.text(104.5, top+15, 9, "Game")
	d.text(135, top+15, 9, "Opponent: _______________")

	for i, p := range prompts {
		py := top + 23 + float64(i)*13
		d.text(marginLeft, py, 9, p)
		d.rule(marginLeft, ruleRight, py+6)
	}
}
