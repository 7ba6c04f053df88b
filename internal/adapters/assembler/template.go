package assembler

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"goaliegen/internal/domain/catalog"
	"goaliegen/internal/domain/document"
)

//go:embed copy.yaml
var copyYAML []byte

// Section is a heading followed by text, bullets or ruled writing lines.
type Section struct {
	Heading    string   `yaml:"heading"`
	Paragraphs []string `yaml:"paragraphs"`
	Bullets    []string `yaml:"bullets"`
	Lines      int      `yaml:"lines"`
}

// Template is the fixed copy of one document kind.
type Template struct {
	Title            string    `yaml:"title"`
	Subtitle         string    `yaml:"subtitle"`
	Meta             []string  `yaml:"meta"`
	Sections         []Section `yaml:"sections"`
	PracticesHeading string    `yaml:"practices_heading"`
	Practice         []string  `yaml:"practice"`
	Closing          []Section `yaml:"closing"`
}

var templates = mustParseTemplates(copyYAML)

func mustParseTemplates(data []byte) map[catalog.Kind]Template {
	t, err := parseTemplates(data)
	if err != nil {
		panic(err)
	}
	return t
}

func parseTemplates(data []byte) (map[catalog.Kind]Template, error) {
	var raw map[string]Template
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse document copy: %w", err)
	}
	out := make(map[catalog.Kind]Template, len(raw))
	for _, k := range catalog.Kinds {
		t, ok := raw[string(k.Kind)]
		if !ok {
			return nil, fmt.Errorf("document copy: missing %q", k.Kind)
		}
		out[k.Kind] = t
	}
	return out, nil
}

// TemplateFor returns the copy for kind with req's values filled in.
func TemplateFor(req document.Request) Template {
	return templates[req.Kind.Kind].fill(replacerFor(req))
}

func replacerFor(req document.Request) *strings.Replacer {
	return strings.NewReplacer(
		"{team}", req.TeamName,
		"{goalie}", req.GoalieName,
		"{age}", string(req.AgeGroup),
		"{skillLabel}", req.SkillLevel.Label(),
		"{skill}", string(req.SkillLevel),
		"{practices}", strconv.Itoa(req.Practices),
		"{season}", req.Season,
	)
}

func (t Template) fill(r *strings.Replacer) Template {
	out := Template{
		Title:            r.Replace(t.Title),
		Subtitle:         r.Replace(t.Subtitle),
		Meta:             replaceAll(r, t.Meta),
		PracticesHeading: t.PracticesHeading,
		Practice:         replaceAll(r, t.Practice),
		Sections:         fillSections(r, t.Sections),
		Closing:          fillSections(r, t.Closing),
	}
	return out
}

func fillSections(r *strings.Replacer, in []Section) []Section {
	if in == nil {
		return nil
	}
	out := make([]Section, len(in))
	for i, s := range in {
		out[i] = Section{
			Heading:    r.Replace(s.Heading),
			Paragraphs: replaceAll(r, s.Paragraphs),
			Bullets:    replaceAll(r, s.Bullets),
			Lines:      s.Lines,
		}
	}
	return out
}

func replaceAll(r *strings.Replacer, in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = r.Replace(s)
	}
	return out
}
