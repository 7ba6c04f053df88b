package assembler

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/common/units"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/stypes"

	"goaliegen/internal/adapters/imaging"
	"goaliegen/internal/domain/document"
)

// Display size of the development plan logo, in pixels at 96 dpi.
const (
	docxLogoBox = 400
	docxDPI     = 96
)

// Paragraph style IDs from the godocx default template.
const (
	styleBullet = "ListBullet"
)

func writeDevelopmentPlan(req document.Request, t Template, _ time.Time) ([]byte, error) {
	if req.Image == nil {
		return nil, fmt.Errorf("development plan requires a logo")
	}
	logo, err := imaging.Downscale(req.Image.Data, imaging.MaxDimension)
	if err != nil {
		return nil, fmt.Errorf("prepare logo: %w", err)
	}

	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("new document: %w", err)
	}
	title, err := doc.AddHeading(t.Title, 0)
	if err != nil {
		return nil, err
	}
	title.Justification(stypes.JustificationCenter)

	w, h := displaySize(logo.Width, logo.Height, docxLogoBox)
	pic, err := addJPEG(doc, logo.Data, w, h)
	if err != nil {
		return nil, fmt.Errorf("add logo: %w", err)
	}
	pic.Para.Justification(stypes.JustificationCenter)

	for _, s := range t.Sections {
		if _, err := doc.AddHeading(s.Heading, 1); err != nil {
			return nil, err
		}
		for _, p := range s.Paragraphs {
			doc.AddEmptyParagraph().AddText(p).Italic(true)
		}
		for _, b := range s.Bullets {
			doc.AddParagraph(b).Style(styleBullet)
		}
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

// addJPEG embeds a JPEG as an inline picture of wPx x hPx.
// godocx only reads pictures from disk, so the bytes go through a temp file.
func addJPEG(doc *docx.RootDoc, data []byte, wPx, hPx int) (*docx.PicMeta, error) {
	f, err := os.CreateTemp("", "goaliegen-logo-*.jpeg")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return doc.AddPicture(f.Name(), units.Inch(float64(wPx)/docxDPI), units.Inch(float64(hPx)/docxDPI))
}

// displaySize scales w x h so the longer side equals box.
func displaySize(w, h, box int) (int, int) {
	if w >= h {
		return box, max(1, h*box/w)
	}
	return max(1, w*box/h), box
}
