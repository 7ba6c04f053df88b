package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"goaliegen/internal/domain/catalog"
	"goaliegen/internal/domain/filename"
	"goaliegen/internal/domain/upload"
	"goaliegen/internal/domain/validation"
)

// Practice count bounds for the team plan, inclusive.
const (
	MinPractices = 0
	MaxPractices = 50
)

// Inputs is the raw state of one modal form, exactly as the user typed it.
type Inputs struct {
	TeamName   string
	GoalieName string
	AgeGroup   string
	SkillLevel string
	Practices  string
	Image      *upload.Image
}

// Request is a validated document request.
// INVARIANT: only produced by Validate with an empty Problems list.
type Request struct {
	Kind       catalog.KindInfo
	TeamName   string
	GoalieName string
	AgeGroup   catalog.AgeGroup
	SkillLevel catalog.SkillLevel
	Practices  int
	Image      *upload.Image
	Season     string
}

// Validate checks in against the fields that kind shows and builds a Request.
// Only the fields of kind are looked at; stray values are ignored.
// PRE: kind comes from catalog.Kinds
// POST: returns a non-zero Request only when problems is empty
func Validate(kind catalog.KindInfo, in Inputs, now time.Time) (Request, validation.Problems) {
	var problems validation.Problems
	req := Request{Kind: kind, Image: in.Image, Season: SeasonFor(now)}

	for _, field := range kind.Fields {
		switch field {
		case catalog.FieldTeamName:
			req.TeamName = strings.TrimSpace(in.TeamName)
			if req.TeamName == "" {
				problems.Add(field, validation.MsgTeamNameRequired)
			}
		case catalog.FieldGoalieName:
			req.GoalieName = strings.TrimSpace(in.GoalieName)
			if req.GoalieName == "" {
				problems.Add(field, validation.MsgGoalieNameRequired)
			}
		case catalog.FieldAgeGroup:
			ag, err := catalog.ParseAgeGroup(strings.TrimSpace(in.AgeGroup))
			if err != nil {
				problems.Add(field, validation.MsgAgeGroupRequired)
			}
			req.AgeGroup = ag
		case catalog.FieldSkillLevel:
			sl, err := catalog.ParseSkillLevel(strings.TrimSpace(in.SkillLevel))
			if err != nil {
				problems.Add(field, validation.MsgSkillLevelRequired)
			}
			req.SkillLevel = sl
		case catalog.FieldPractices:
			n, msg := ParsePractices(in.Practices)
			if msg != "" {
				problems.Add(field, msg)
			}
			req.Practices = n
		case catalog.FieldImage:
			if kind.ImageRequired && in.Image == nil {
				problems.Add(field, validation.MsgImageRequired)
			}
		}
	}

	if !problems.Ready() {
		return Request{}, problems
	}
	return req, nil
}

// ParsePractices parses a practice count.
// Decimal points, commas, signs, leading zeros and anything outside
// [MinPractices, MaxPractices] are rejected.
// POST: msg is empty on success, otherwise the user-facing reason
func ParsePractices(raw string) (n int, msg string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, validation.MsgPracticesRequired
	}
	if strings.ContainsAny(s, ".,") {
		return 0, validation.MsgPracticesRange
	}
	n, err := strconv.Atoi(s)
	if err != nil || strconv.Itoa(n) != s || n < MinPractices || n > MaxPractices {
		return 0, validation.MsgPracticesRange
	}
	return n, ""
}

// SeasonFor returns the hockey season label starting in now's year, e.g. "2026-2027".
func SeasonFor(now time.Time) string {
	y := now.Year()
	return fmt.Sprintf("%d-%d", y, y+1)
}

// FileName returns the suggested download name for the request.
func (r Request) FileName() string {
	ext := r.Kind.Format.Extension()
	switch r.Kind.Kind {
	case catalog.KindDrill:
		return fmt.Sprintf("goalie_drill_%s_%s%s", r.AgeGroup, r.SkillLevel, ext)
	case catalog.KindTeamPlan:
		return filename.Sanitize(r.TeamName, "Team") + "_Team_Development_Plan" + ext
	case catalog.KindDevelopmentPlan:
		return filename.Sanitize(r.TeamName, "Team") + "_Goaltending_Development_Plan" + ext
	case catalog.KindJournal:
		return filename.Sanitize(r.GoalieName, "Goalie") + "_Goalie_Journal_" + r.Season + ext
	default:
		return "document" + ext
	}
}
