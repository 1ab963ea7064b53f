package resume

import (
	"strings"
	"time"
)

// Template identifies one of the built-in layout strategies.
type Template string

const (
	TemplateProfessional Template = "professional"
	TemplateCreative     Template = "creative"
	TemplateMinimal      Template = "minimal"
)

// Normalize maps unknown or empty template identifiers to the default.
// The mapping is total on purpose: a resume saved with a template that
// no longer exists must still render.
func (t Template) Normalize() Template {
	switch t {
	case TemplateProfessional, TemplateCreative, TemplateMinimal:
		return t
	default:
		return TemplateProfessional
	}
}

// DefaultTitle is assigned to drafts created without a user-supplied title.
const DefaultTitle = "My Resume"

// Document is the canonical, template-agnostic representation of a resume.
// ID is zero for an unsaved draft; UpdatedAt is owned by the persistence layer.
type Document struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Template  Template  `json:"template"`
	Content   Content   `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Content holds the structured resume payload. All fields are optional;
// rendering suppresses whatever is absent.
type Content struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Summary      string       `json:"summary"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
	Skills       []string     `json:"skills"`
}

// PersonalInfo carries identity and contact rows for the header region.
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
}

// Experience is one work-history entry. Order within the slice is
// significant and preserved through every edit. Current=true suppresses
// EndDate at render time regardless of its stored value.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// Education is one education entry; same date semantics as Experience.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
}

// NewDraft builds an unsaved draft with the editor's initial shape:
// one blank experience and education entry, professional template.
func NewDraft(title string) Document {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	return Document{
		Title:    title,
		Template: TemplateProfessional,
		Content: Content{
			Experience: []Experience{{}},
			Education:  []Education{{}},
			Skills:     []string{},
		},
	}
}

// Clone returns a deep copy; the receiver's slices are never aliased.
func (c Content) Clone() Content {
	out := c
	out.Experience = append([]Experience(nil), c.Experience...)
	out.Education = append([]Education(nil), c.Education...)
	out.Skills = append([]string(nil), c.Skills...)
	return out
}

// WithPersonalInfo returns a copy with the personal info replaced.
func (c Content) WithPersonalInfo(info PersonalInfo) Content {
	out := c.Clone()
	out.PersonalInfo = info
	return out
}

// WithSummary returns a copy with the summary replaced.
func (c Content) WithSummary(summary string) Content {
	out := c.Clone()
	out.Summary = summary
	return out
}

// WithExperience returns a copy with the experience list replaced.
func (c Content) WithExperience(entries []Experience) Content {
	out := c.Clone()
	out.Experience = append([]Experience(nil), entries...)
	return out
}

// WithEducation returns a copy with the education list replaced.
func (c Content) WithEducation(entries []Education) Content {
	out := c.Clone()
	out.Education = append([]Education(nil), entries...)
	return out
}

// WithSkills returns a copy with the skill list replaced. Entries are
// trimmed of surrounding whitespace; blanks are dropped, duplicates kept.
func (c Content) WithSkills(skills []string) Content {
	out := c.Clone()
	out.Skills = make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out.Skills = append(out.Skills, s)
	}
	return out
}
