package catalog

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AgeGroup is a youth hockey age bracket.
type AgeGroup string

const (
	AgeGroup8U    AgeGroup = "8u"
	AgeGroup10U   AgeGroup = "10u"
	AgeGroup12U   AgeGroup = "12u"
	AgeGroup14UUp AgeGroup = "14u+"
)

// AgeGroups lists every selectable age group in display order.
var AgeGroups = []AgeGroup{AgeGroup8U, AgeGroup10U, AgeGroup12U, AgeGroup14UUp}

// Label returns the display label ("10U").
func (a AgeGroup) Label() string {
	return strings.ToUpper(string(a))
}

// SkillLevel is the experience level of the goaltenders a document targets.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// SkillLevels lists every selectable skill level in display order.
var SkillLevels = []SkillLevel{SkillBeginner, SkillIntermediate, SkillAdvanced}

// Domain errors.
var (
	ErrUnknownAgeGroup   = errors.New("unknown age group")
	ErrUnknownSkillLevel = errors.New("unknown skill level")
	ErrUnknownKind       = errors.New("unknown document kind")
)

var titleCaser = cases.Title(language.English)

// ParseAgeGroup returns the AgeGroup matching s.
// PRE: none
// POST: returns ErrUnknownAgeGroup unless s is one of AgeGroups
func ParseAgeGroup(s string) (AgeGroup, error) {
	for _, a := range AgeGroups {
		if string(a) == s {
			return a, nil
		}
	}
	return "", ErrUnknownAgeGroup
}

// ParseSkillLevel returns the SkillLevel matching s.
// PRE: none
// POST: returns ErrUnknownSkillLevel unless s is one of SkillLevels
func ParseSkillLevel(s string) (SkillLevel, error) {
	for _, l := range SkillLevels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", ErrUnknownSkillLevel
}

// Label returns the capitalised display label ("Beginner").
func (l SkillLevel) Label() string {
	return titleCaser.String(string(l))
}

// Format is the output format of a generated document.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type served with the document.
func (f Format) ContentType() string {
	switch f {
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/pdf"
	}
}

// Kind identifies one document-generation flow.
type Kind string

const (
	KindDrill           Kind = "drill"
	KindTeamPlan        Kind = "team-plan"
	KindDevelopmentPlan Kind = "development-plan"
	KindJournal         Kind = "journal"
)

// Field names shared by every form.
const (
	FieldTeamName   = "teamName"
	FieldGoalieName = "goalieName"
	FieldAgeGroup   = "ageGroup"
	FieldSkillLevel = "skillLevel"
	FieldPractices  = "numberOfPractices"
	FieldImage      = "image"
)

// KindInfo describes how a document kind is presented and produced.
type KindInfo struct {
	Kind          Kind
	Button        string // label on the index page
	Title         string // modal heading
	Format        Format
	Fields        []string
	ImageRequired bool
	ImageLabel    string
}

// HasField reports whether the kind's modal shows the named field.
func (k KindInfo) HasField(name string) bool {
	for _, f := range k.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Kinds lists the document flows in index-page order.
var Kinds = []KindInfo{
	{
		Kind:   KindDrill,
		Button: "Download a Drill",
		Title:  "Download a Goalie Drill",
		Format: FormatPDF,
		Fields: []string{FieldAgeGroup, FieldSkillLevel},
	},
	{
		Kind:       KindTeamPlan,
		Button:     "Generate Team-Level Development Plan",
		Title:      "Generate Team Plan",
		Format:     FormatPDF,
		Fields:     []string{FieldTeamName, FieldImage, FieldAgeGroup, FieldSkillLevel, FieldPractices},
		ImageLabel: "Team/Club Logo (Optional)",
	},
	{
		Kind:          KindDevelopmentPlan,
		Button:        "Generate Development Plan",
		Title:         "Generate Development Plan",
		Format:        FormatDOCX,
		Fields:        []string{FieldTeamName, FieldImage},
		ImageRequired: true,
		ImageLabel:    "Team Logo",
	},
	{
		Kind:       KindJournal,
		Button:     "Goalie Journal",
		Title:      "Generate Goalie Journal",
		Format:     FormatPDF,
		Fields:     []string{FieldGoalieName, FieldTeamName, FieldImage},
		ImageLabel: "Team Logo (optional)",
	},
}

// Lookup returns the KindInfo for a kind name.
// PRE: none
// POST: returns ErrUnknownKind for names outside Kinds
func Lookup(name string) (KindInfo, error) {
	name = strings.TrimSpace(name)
	for _, k := range Kinds {
		if string(k.Kind) == name {
			return k, nil
		}
	}
	return KindInfo{}, ErrUnknownKind
}
