package template

import (
	"fmt"
	"html/template"
	"math/rand"
	"strings"

	"resumekit/internal/resume"
)

// funcMap holds the helpers shared by all strategy templates.
func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": resume.FormatDate,
		"dateRange":  resume.DateRange,
		"joinSkills": joinSkills,
		"skillBar":   skillBarWidth,
		"subtitle":   entrySubtitle,
		"degreeLine": degreeLine,
		"paragraphs": paragraphs,
	}
}

// joinSkills renders the skill list as one delimited inline string
// (minimal template).
func joinSkills(skills []string) string {
	return strings.Join(skills, " • ")
}

// skillBarWidth returns the decorative proficiency-bar fill for the
// creative template: a presentation-only random 70-99%. The value never
// enters the data model or any persisted state.
func skillBarWidth() string {
	return fmt.Sprintf("%d%%", 70+rand.Intn(30))
}

// entrySubtitle renders "Company, Location" with the comma suppressed
// when location is absent.
func entrySubtitle(company, location string) string {
	if location == "" {
		return company
	}
	if company == "" {
		return location
	}
	return company + ", " + location
}

// degreeLine renders "Degree in Field", dropping whichever part is absent.
func degreeLine(degree, field string) string {
	switch {
	case degree != "" && field != "":
		return degree + " in " + field
	case degree != "":
		return degree
	default:
		return field
	}
}

// paragraphs splits free text on newlines so descriptions keep their
// line structure without resorting to unescaped HTML.
func paragraphs(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, line)
	}
	return out
}

// renderableExperience drops all-blank placeholder rows left by a fresh
// draft so they never show up as empty entries or sections.
func renderableExperience(entries []resume.Experience) []resume.Experience {
	out := make([]resume.Experience, 0, len(entries))
	for _, e := range entries {
		if e.Title != "" || e.Company != "" || e.Location != "" ||
			e.StartDate != "" || e.EndDate != "" || e.Description != "" || e.Current {
			out = append(out, e)
		}
	}
	return out
}

func renderableEducation(entries []resume.Education) []resume.Education {
	out := make([]resume.Education, 0, len(entries))
	for _, e := range entries {
		if e.Institution != "" || e.Degree != "" || e.Field != "" ||
			e.StartDate != "" || e.EndDate != "" || e.Current {
			out = append(out, e)
		}
	}
	return out
}

// view is the root value handed to every strategy template. Sections
// arrive pre-filtered so the templates stay declarative.
type view struct {
	Info       resume.PersonalInfo
	Summary    string
	Experience []resume.Experience
	Education  []resume.Education
	Skills     []string
}

func newView(content resume.Content) view {
	return view{
		Info:       content.PersonalInfo,
		Summary:    strings.TrimSpace(content.Summary),
		Experience: renderableExperience(content.Experience),
		Education:  renderableEducation(content.Education),
		Skills:     content.Skills,
	}
}
