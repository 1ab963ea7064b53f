package template

import (
	"bytes"
	"fmt"
	"html/template"

	"resumekit/internal/resume"
)

// minimalHTML is the understated single-column layout: centered uppercase
// header, hairline section separators, skills as one delimited line.
const minimalHTML = `
<style>
  .min { color: #1f2937; padding: 32px; font-family: Georgia, 'Times New Roman', serif; }
  .min header { text-align: center; margin-bottom: 32px; }
  .min h1 { margin: 0; font-size: 30px; font-weight: 300; color: #111827; text-transform: uppercase; letter-spacing: 0.2em; }
  .min .contact { display: flex; justify-content: center; flex-wrap: wrap; gap: 16px; margin-top: 12px; font-size: 13px; color: #4b5563; }
  .min h2 { font-size: 16px; font-weight: 400; color: #111827; text-transform: uppercase; letter-spacing: 0.1em; border-bottom: 1px solid #d1d5db; padding-bottom: 4px; margin: 0 0 12px; }
  .min section { margin-bottom: 32px; }
  .min .entry { margin-bottom: 16px; }
  .min .entry-head { display: flex; justify-content: space-between; align-items: baseline; }
  .min .entry-head h3 { margin: 0; font-size: 15px; font-weight: 500; color: #111827; }
  .min .dates { color: #4b5563; font-size: 13px; }
  .min .org { color: #374151; font-style: italic; font-size: 14px; }
  .min .desc { color: #4b5563; font-size: 13px; margin: 6px 0 0; }
  .min .skills { color: #374151; font-size: 14px; }
</style>
<div class="min">
  <header>
    <h1>{{.Info.Name}}</h1>
    <div class="contact">
      {{if .Info.Email}}<span>{{.Info.Email}}</span>{{end}}
      {{if .Info.Phone}}<span>{{.Info.Phone}}</span>{{end}}
      {{if .Info.LinkedIn}}<span>{{.Info.LinkedIn}}</span>{{end}}
    </div>
  </header>

  {{if .Summary}}
  <section>
    <h2>Profile</h2>
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
        <span class="dates">{{dateRange .StartDate .EndDate .Current}}</span>
      </div>
      <div class="org">{{subtitle .Company .Location}}</div>
      {{range paragraphs .Description}}<p class="desc">{{.}}</p>{{end}}
    </div>
    {{end}}
  </section>
  {{end}}

  {{if .Education}}
  <section>
    <h2>Education</h2>
    {{range .Education}}
    <div class="entry">
      <div class="entry-head">
        <h3>{{degreeLine .Degree .Field}}</h3>
        <span class="dates">{{dateRange .StartDate .EndDate .Current}}</span>
      </div>
      <div class="org">{{.Institution}}</div>
    </div>
    {{end}}
  </section>
  {{end}}

  {{if .Skills}}
  <section>
    <h2>Skills</h2>
    <div class="skills">{{joinSkills .Skills}}</div>
  </section>
  {{end}}
</div>
`

type minimalStrategy struct {
	tpl *template.Template
}

func newMinimalStrategy() *minimalStrategy {
	return &minimalStrategy{
		tpl: template.Must(template.New("minimal").Funcs(funcMap()).Parse(minimalHTML)),
	}
}

func (s *minimalStrategy) Name() resume.Template {
	return resume.TemplateMinimal
}

func (s *minimalStrategy) Render(content resume.Content) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.tpl.Execute(&buf, newView(content)); err != nil {
		return "", fmt.Errorf("render minimal template: %w", err)
	}
	return template.HTML(buf.String()), nil
}
