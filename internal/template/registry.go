// Package template maps a resume's template identifier to a layout
// strategy. Each strategy is a pure function from resume content to an
// HTML body fragment; the renderer wraps fragments in the page shell.
package template

import (
	"html/template"

	"resumekit/internal/resume"
)

// Strategy lays out resume content as an HTML fragment. Implementations
// must not mutate the content and must not depend on mutable external
// state: re-rendering identical content yields identical output (the
// creative proficiency bars are the one documented exception).
type Strategy interface {
	Name() resume.Template
	Render(content resume.Content) (template.HTML, error)
}

// Registry resolves template identifiers to strategies. The zero value
// is not usable; construct with NewRegistry.
type Registry struct {
	strategies map[resume.Template]Strategy
	fallback   Strategy
}

// NewRegistry builds a registry carrying the three built-in strategies,
// with professional as the fallback for unknown identifiers.
func NewRegistry() *Registry {
	professional := newProfessionalStrategy()
	r := &Registry{
		strategies: map[resume.Template]Strategy{},
		fallback:   professional,
	}
	for _, s := range []Strategy{
		professional,
		newCreativeStrategy(),
		newMinimalStrategy(),
	} {
		r.strategies[s.Name()] = s
	}
	return r
}

// Resolve returns the strategy for kind. The mapping is total: unknown
// or empty identifiers resolve to the professional strategy, never nil.
func (r *Registry) Resolve(kind resume.Template) Strategy {
	if s, ok := r.strategies[kind.Normalize()]; ok {
		return s
	}
	return r.fallback
}

// Kinds lists the registered template identifiers in a fixed order.
func (r *Registry) Kinds() []resume.Template {
	return []resume.Template{
		resume.TemplateProfessional,
		resume.TemplateCreative,
		resume.TemplateMinimal,
	}
}
