package upload

import (
	"net/http"
	"strings"

	"goaliegen/internal/domain/validation"
)

// MaxImageBytes is the largest logo accepted by any form.
const MaxImageBytes = 5 << 20

// Image is an uploaded logo that passed the form-layer checks.
// INVARIANT: ContentType starts with "image/" and 0 < len(Data) <= MaxImageBytes.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewImage checks an uploaded file and returns it as an Image.
// The declared content type is trusted when present; a missing or generic
// type is sniffed from the bytes.
// PRE: data holds the complete upload
// POST: returns problems for field when the file is not an image or too large
func NewImage(field, name, declaredType string, data []byte) (Image, validation.Problems) {
	var problems validation.Problems

	ct := strings.TrimSpace(strings.ToLower(declaredType))
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	if len(data) == 0 || !strings.HasPrefix(ct, "image/") {
		problems.Add(field, validation.MsgImageType)
		return Image{}, problems
	}
	if len(data) > MaxImageBytes {
		problems.Add(field, validation.MsgImageTooLarge)
		return Image{}, problems
	}
	return Image{Name: name, ContentType: ct, Data: data}, nil
}
