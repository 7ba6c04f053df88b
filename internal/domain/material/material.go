package material

import (
	"errors"
	"path"
	"strings"
)

// Material is a pre-made PDF offered for direct download.
type Material struct {
	Title    string
	FileName string
}

// ErrUnknownMaterial is returned for file names not in the catalogue.
var ErrUnknownMaterial = errors.New("unknown material")

// Catalogue lists the downloadable materials in display order.
var Catalogue = []Material{
	{Title: "Goalie Warm-Up Routine", FileName: "goalie_warm_up_routine.pdf"},
	{Title: "Butterfly Fundamentals", FileName: "butterfly_fundamentals.pdf"},
	{Title: "Practice Planning Checklist", FileName: "practice_planning_checklist.pdf"},
	{Title: "Parent Guide to Goaltending", FileName: "parent_guide_to_goaltending.pdf"},
}

// Find returns the catalogue entry for fileName.
// Only plain catalogue names are accepted, so a lookup can never escape the
// materials directory.
// POST: returns ErrUnknownMaterial for anything else
func Find(fileName string) (Material, error) {
	if fileName == "" || strings.ContainsAny(fileName, `/\`) || path.Clean(fileName) != fileName {
		return Material{}, ErrUnknownMaterial
	}
	for _, m := range Catalogue {
		if m.FileName == fileName {
			return m, nil
		}
	}
	return Material{}, ErrUnknownMaterial
}
