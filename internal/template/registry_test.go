package template

import (
	"fmt"
	"strings"
	"testing"

	"resumekit/internal/resume"
)

func sampleContent() resume.Content {
	return resume.Content{
		PersonalInfo: resume.PersonalInfo{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
			Phone: "555-0100",
		},
		Summary: "Engineer with a decade of distributed systems work.",
		Experience: []resume.Experience{
			{
				Title:       "Senior Backend Engineer",
				Company:     "Analytical Engines",
				Location:    "London",
				StartDate:   "2022-01-15",
				Current:     true,
				Description: "Built the compute pipeline.\nScaled it tenfold.",
			},
			{
				Title:     "Engineer",
				Company:   "Difference Co",
				StartDate: "2019-03-01",
				EndDate:   "2021-12-31",
			},
		},
		Education: []resume.Education{
			{
				Institution: "University of London",
				Degree:      "BSc",
				Field:       "Mathematics",
				StartDate:   "2015-09-01",
				EndDate:     "2019-06-30",
			},
		},
		Skills: []string{"Go", "PostgreSQL", "Kubernetes"},
	}
}

func TestResolveIsTotal(t *testing.T) {
	registry := NewRegistry()
	cases := []struct {
		kind resume.Template
		want resume.Template
	}{
		{resume.TemplateProfessional, resume.TemplateProfessional},
		{resume.TemplateCreative, resume.TemplateCreative},
		{resume.TemplateMinimal, resume.TemplateMinimal},
		{resume.Template(""), resume.TemplateProfessional},
		{resume.Template("no-such-layout"), resume.TemplateProfessional},
	}
	for _, tc := range cases {
		s := registry.Resolve(tc.kind)
		if s == nil {
			t.Fatalf("Resolve(%q) returned nil", tc.kind)
		}
		if s.Name() != tc.want {
			t.Errorf("Resolve(%q).Name() = %q, want %q", tc.kind, s.Name(), tc.want)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	// The creative strategy is excluded: its proficiency bars are
	// documented as decorative and random.
	registry := NewRegistry()
	content := sampleContent()

	for _, kind := range []resume.Template{resume.TemplateProfessional, resume.TemplateMinimal} {
		s := registry.Resolve(kind)
		first, err := s.Render(content)
		if err != nil {
			t.Fatalf("%s: render: %v", kind, err)
		}
		second, err := s.Render(content)
		if err != nil {
			t.Fatalf("%s: re-render: %v", kind, err)
		}
		if first != second {
			t.Errorf("%s: re-rendering identical content produced different output", kind)
		}
	}
}

func TestRenderDoesNotMutateContent(t *testing.T) {
	registry := NewRegistry()
	content := sampleContent()

	for _, kind := range registry.Kinds() {
		if _, err := registry.Resolve(kind).Render(content); err != nil {
			t.Fatalf("%s: render: %v", kind, err)
		}
	}

	want := sampleContent()
	if content.Summary != want.Summary ||
		len(content.Experience) != len(want.Experience) ||
		content.Experience[0].Title != want.Experience[0].Title ||
		len(content.Skills) != len(want.Skills) {
		t.Errorf("render mutated the content")
	}
}

func TestRenderFormatsDates(t *testing.T) {
	registry := NewRegistry()
	out, err := registry.Resolve(resume.TemplateProfessional).Render(sampleContent())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)

	if !strings.Contains(html, "Jan 2022 - Present") {
		t.Errorf("current role range missing, got:\n%s", html)
	}
	if !strings.Contains(html, "Mar 2019 - Dec 2021") {
		t.Errorf("closed role range missing")
	}
}

func TestRenderOmitsEmptySections(t *testing.T) {
	registry := NewRegistry()
	content := resume.Content{
		PersonalInfo: resume.PersonalInfo{Name: "Ada Lovelace"},
		// blank placeholder rows from a fresh draft
		Experience: []resume.Experience{{}},
		Education:  []resume.Education{{}},
	}

	for _, kind := range registry.Kinds() {
		out, err := registry.Resolve(kind).Render(content)
		if err != nil {
			t.Fatalf("%s: render: %v", kind, err)
		}
		html := string(out)

		if !strings.Contains(html, "Ada Lovelace") {
			t.Errorf("%s: name missing from header", kind)
		}
		// Section headings are the only h2 elements in every layout, so a
		// name-only document must render none.
		if strings.Contains(html, "<h2") {
			t.Errorf("%s: empty section heading rendered", kind)
		}
		if strings.Contains(html, "N/A") {
			t.Errorf("%s: placeholder text leaked into output", kind)
		}
	}
}

func TestRenderOmitsAbsentContactFields(t *testing.T) {
	registry := NewRegistry()
	content := resume.Content{
		PersonalInfo: resume.PersonalInfo{Name: "Ada Lovelace", Email: "ada@example.com"},
	}

	out, err := registry.Resolve(resume.TemplateProfessional).Render(content)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)

	if !strings.Contains(html, "ada@example.com") {
		t.Errorf("email missing")
	}
	if got := strings.Count(html, "<span>"); got != 1 {
		t.Errorf("contact spans = %d, want exactly the email", got)
	}
}

func TestTemplatesShareContentVerbatim(t *testing.T) {
	registry := NewRegistry()
	content := sampleContent()

	for _, kind := range registry.Kinds() {
		out, err := registry.Resolve(kind).Render(content)
		if err != nil {
			t.Fatalf("%s: render: %v", kind, err)
		}
		html := string(out)
		for _, fragment := range []string{
			"Ada Lovelace",
			"Senior Backend Engineer",
			"University of London",
			"Go",
		} {
			if !strings.Contains(html, fragment) {
				t.Errorf("%s: missing %q", kind, fragment)
			}
		}
	}
}

func TestMinimalJoinsSkillsInline(t *testing.T) {
	registry := NewRegistry()
	out, err := registry.Resolve(resume.TemplateMinimal).Render(sampleContent())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "Go • PostgreSQL • Kubernetes") {
		t.Errorf("minimal skills line missing, got:\n%s", out)
	}
}

func TestCreativeSkillBarsStayInRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		w := skillBarWidth()
		var n int
		if _, err := fmt.Sscanf(w, "%d%%", &n); err != nil {
			t.Fatalf("bar width %q: %v", w, err)
		}
		if n < 70 || n > 99 {
			t.Errorf("bar width %d out of range", n)
		}
	}
}
