package document_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"goaliegen/internal/domain/catalog"
	"goaliegen/internal/domain/document"
	"goaliegen/internal/domain/upload"
	"goaliegen/internal/domain/validation"
)

var fixedNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func mustKind(t *testing.T, k catalog.Kind) catalog.KindInfo {
	t.Helper()
	info, err := catalog.Lookup(string(k))
	if err != nil {
		t.Fatalf("lookup %s: %v", k, err)
	}
	return info
}

func TestValidate_DrillIgnoresPracticeCount(t *testing.T) {
	req, problems := document.Validate(mustKind(t, catalog.KindDrill), document.Inputs{
		TeamName:   "Rivertown U10",
		AgeGroup:   "10u",
		SkillLevel: "beginner",
	}, fixedNow)
	if !problems.Ready() {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if got := req.FileName(); got != "goalie_drill_10u_beginner.pdf" {
		t.Errorf("FileName() = %q, want goalie_drill_10u_beginner.pdf", got)
	}
}

func TestValidate_TeamPlanMissingFields(t *testing.T) {
	_, problems := document.Validate(mustKind(t, catalog.KindTeamPlan), document.Inputs{}, fixedNow)
	want := []string{
		validation.MsgTeamNameRequired,
		validation.MsgAgeGroupRequired,
		validation.MsgSkillLevelRequired,
		validation.MsgPracticesRequired,
	}
	if diff := cmp.Diff(want, problems.Messages()); diff != "" {
		t.Errorf("problems mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_EachMissingFieldReported(t *testing.T) {
	complete := document.Inputs{TeamName: "Hawks", AgeGroup: "12u", SkillLevel: "advanced", Practices: "12"}
	kind := mustKind(t, catalog.KindTeamPlan)

	cases := map[string]func(in *document.Inputs){
		catalog.FieldTeamName:   func(in *document.Inputs) { in.TeamName = "   " },
		catalog.FieldAgeGroup:   func(in *document.Inputs) { in.AgeGroup = "" },
		catalog.FieldSkillLevel: func(in *document.Inputs) { in.SkillLevel = "" },
		catalog.FieldPractices:  func(in *document.Inputs) { in.Practices = "" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := complete
			mutate(&in)
			req, problems := document.Validate(kind, in, fixedNow)
			if !problems.Has(field) {
				t.Errorf("expected problem for %s, got %v", field, problems)
			}
			if len(problems) != 1 {
				t.Errorf("expected exactly one problem, got %v", problems)
			}
			if req.Kind.Kind != "" {
				t.Errorf("expected zero Request when invalid, got %+v", req)
			}
		})
	}
}

func TestParsePractices(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantMsg string
	}{
		{"0", 0, ""},
		{"50", 50, ""},
		{" 12 ", 12, ""},
		{"", 0, validation.MsgPracticesRequired},
		{"   ", 0, validation.MsgPracticesRequired},
		{"5.0", 0, validation.MsgPracticesRange},
		{"5.", 0, validation.MsgPracticesRange},
		{"1,000", 0, validation.MsgPracticesRange},
		{"51", 0, validation.MsgPracticesRange},
		{"-1", 0, validation.MsgPracticesRange},
		{"-0", 0, validation.MsgPracticesRange},
		{"+5", 0, validation.MsgPracticesRange},
		{"07", 0, validation.MsgPracticesRange},
		{"5abc", 0, validation.MsgPracticesRange},
		{"1e1", 0, validation.MsgPracticesRange},
	}
	for _, tt := range tests {
		got, msg := document.ParsePractices(tt.in)
		if got != tt.want || msg != tt.wantMsg {
			t.Errorf("ParsePractices(%q) = (%d, %q), want (%d, %q)", tt.in, got, msg, tt.want, tt.wantMsg)
		}
	}
}

func TestValidate_TeamPlanFileNameSanitized(t *testing.T) {
	req, problems := document.Validate(mustKind(t, catalog.KindTeamPlan), document.Inputs{
		TeamName: "A/B:C", AgeGroup: "8u", SkillLevel: "beginner", Practices: "3",
	}, fixedNow)
	if !problems.Ready() {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if got := req.FileName(); got != "A_B_C_Team_Development_Plan.pdf" {
		t.Errorf("FileName() = %q", got)
	}
	if !strings.HasPrefix(req.FileName(), "A_B_C") {
		t.Errorf("segment not sanitised: %q", req.FileName())
	}
	if req.Practices != 3 {
		t.Errorf("Practices = %d, want 3", req.Practices)
	}
}

func TestValidate_DevelopmentPlanRequiresImage(t *testing.T) {
	kind := mustKind(t, catalog.KindDevelopmentPlan)
	_, problems := document.Validate(kind, document.Inputs{TeamName: "Hawks"}, fixedNow)
	if !problems.Has(catalog.FieldImage) {
		t.Fatalf("expected image problem, got %v", problems)
	}

	img := &upload.Image{Name: "logo.png", ContentType: "image/png", Data: []byte{1}}
	req, problems := document.Validate(kind, document.Inputs{TeamName: "Hawks Elite", Image: img}, fixedNow)
	if !problems.Ready() {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if got := req.FileName(); got != "Hawks_Elite_Goaltending_Development_Plan.docx" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestValidate_JournalFileName(t *testing.T) {
	kind := mustKind(t, catalog.KindJournal)
	_, problems := document.Validate(kind, document.Inputs{TeamName: "Hawks"}, fixedNow)
	if diff := cmp.Diff([]string{validation.MsgGoalieNameRequired}, problems.Messages()); diff != "" {
		t.Errorf("problems mismatch (-want +got):\n%s", diff)
	}

	req, problems := document.Validate(kind, document.Inputs{GoalieName: "..", TeamName: "Hawks"}, fixedNow)
	if !problems.Ready() {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if got := req.FileName(); got != "Goalie_Goalie_Journal_2026-2027.pdf" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestSeasonFor(t *testing.T) {
	if got := document.SeasonFor(fixedNow); got != "2026-2027" {
		t.Errorf("SeasonFor = %q", got)
	}
}
