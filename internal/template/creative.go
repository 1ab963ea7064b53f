package template

import (
	"bytes"
	"fmt"
	"html/template"

	"resumekit/internal/resume"
)

// creativeHTML is the two-region layout: an indigo sidebar carrying
// identity, contact, skills and education, and a main region carrying the
// summary and experience. Skill entries get a decorative proficiency bar
// whose fill is randomized per render and never persisted.
const creativeHTML = `
<style>
  .cre { display: flex; min-height: 100%; color: #1f2937; font-family: 'Helvetica Neue', Arial, sans-serif; }
  .cre .side { width: 33%; background: #4338ca; color: #ffffff; padding: 24px; box-sizing: border-box; }
  .cre .side h1 { margin: 0 0 4px; font-size: 24px; }
  .cre .rule { height: 4px; width: 48px; background: #ffffff; margin-bottom: 16px; }
  .cre .side .row { font-size: 13px; margin-bottom: 8px; word-break: break-word; }
  .cre .side h2 { font-size: 18px; text-transform: uppercase; letter-spacing: 0.08em; margin: 32px 0 12px; }
  .cre .skill { margin-bottom: 12px; }
  .cre .skill-name { font-size: 11px; font-weight: 600; text-transform: uppercase; }
  .cre .bar { height: 4px; border-radius: 2px; background: #312e81; overflow: hidden; margin-top: 4px; }
  .cre .bar-fill { height: 100%; background: #ffffff; }
  .cre .side .entry { margin-bottom: 12px; }
  .cre .side .entry h3 { margin: 0; font-size: 14px; font-weight: 500; }
  .cre .side .muted { font-size: 13px; opacity: 0.8; }
  .cre .side .dates { font-size: 11px; opacity: 0.7; }
  .cre .main { width: 67%; padding: 24px; box-sizing: border-box; }
  .cre .main h2 { font-size: 20px; font-weight: 700; color: #4338ca; text-transform: uppercase; letter-spacing: 0.08em; margin: 0 0 12px; }
  .cre .main section { margin-bottom: 24px; }
  .cre .main .entry { margin-bottom: 20px; }
  .cre .entry-head { display: flex; justify-content: space-between; align-items: flex-start; }
  .cre .entry-head h3 { margin: 0; font-weight: 700; color: #1f2937; font-size: 15px; }
  .cre .badge { color: #4b5563; font-size: 12px; background: #f3f4f6; padding: 3px 8px; border-radius: 4px; white-space: nowrap; }
  .cre .org { color: #4f46e5; font-weight: 500; font-size: 14px; }
  .cre .desc { color: #4b5563; font-size: 13px; margin: 6px 0 0; }
</style>
<div class="cre">
  <div class="side">
    <h1>{{.Info.Name}}</h1>
    <div class="rule"></div>
    {{if .Info.Email}}<div class="row">{{.Info.Email}}</div>{{end}}
    {{if .Info.Phone}}<div class="row">{{.Info.Phone}}</div>{{end}}
    {{if .Info.LinkedIn}}<div class="row">{{.Info.LinkedIn}}</div>{{end}}
    {{if .Info.Website}}<div class="row">{{.Info.Website}}</div>{{end}}

    {{if .Skills}}
    <h2>Skills</h2>
    {{range .Skills}}
    <div class="skill">
      <div class="skill-name">{{.}}</div>
      <div class="bar"><div class="bar-fill" style="width: {{skillBar}}"></div></div>
    </div>
    {{end}}
    {{end}}

    {{if .Education}}
    <h2>Education</h2>
    {{range .Education}}
    <div class="entry">
      <h3>{{degreeLine .Degree .Field}}</h3>
      <div class="muted">{{.Institution}}</div>
      <div class="dates">{{dateRange .StartDate .EndDate .Current}}</div>
    </div>
    {{end}}
    {{end}}
  </div>

  <div class="main">
    {{if .Summary}}
    <section>
      <h2>About Me</h2>
      <p class="desc">{{.Summary}}</p>
    </section>
    {{end}}

    {{if .Experience}}
    <section>
      <h2>Experience</h2>
      {{range .Experience}}
      <div class="entry">
        <div class="entry-head">
          <h3>{{.Title}}</h3>
          <span class="badge">{{dateRange .StartDate .EndDate .Current}}</span>
        </div>
        <div class="org">{{subtitle .Company .Location}}</div>
        {{range paragraphs .Description}}<p class="desc">{{.}}</p>{{end}}
      </div>
      {{end}}
    </section>
    {{end}}
  </div>
</div>
`

type creativeStrategy struct {
	tpl *template.Template
}

func newCreativeStrategy() *creativeStrategy {
	return &creativeStrategy{
		tpl: template.Must(template.New("creative").Funcs(funcMap()).Parse(creativeHTML)),
	}
}

func (s *creativeStrategy) Name() resume.Template {
	return resume.TemplateCreative
}

func (s *creativeStrategy) Render(content resume.Content) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.tpl.Execute(&buf, newView(content)); err != nil {
		return "", fmt.Errorf("render creative template: %w", err)
	}
	return template.HTML(buf.String()), nil
}
