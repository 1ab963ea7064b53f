package template

import (
	"bytes"
	"fmt"
	"html/template"

	"resumekit/internal/resume"
)

// professionalHTML is the single-column chronological layout: header with
// contact rows, then summary, experience, education and skills-as-chips
// in fixed order.
const professionalHTML = `
<style>
  .pro { color: #1f2937; padding: 32px; font-family: 'Helvetica Neue', Arial, sans-serif; }
  .pro header { border-bottom: 2px solid #d1d5db; padding-bottom: 16px; margin-bottom: 24px; }
  .pro h1 { margin: 0; font-size: 30px; color: #111827; }
  .pro .contact { display: flex; flex-wrap: wrap; gap: 12px; margin-top: 8px; font-size: 13px; color: #374151; }
  .pro h2 { font-size: 20px; font-weight: 600; color: #1f2937; margin: 0 0 10px; }
  .pro section { margin-bottom: 24px; }
  .pro .entry { margin-bottom: 16px; }
  .pro .entry-head { display: flex; justify-content: space-between; }
  .pro .entry-head h3 { margin: 0; font-size: 15px; font-weight: 500; color: #111827; }
  .pro .dates { color: #4b5563; font-size: 13px; }
  .pro .org { color: #374151; font-size: 14px; }
  .pro .desc { color: #4b5563; font-size: 13px; margin: 4px 0 0; }
  .pro .chips { display: flex; flex-wrap: wrap; gap: 8px; }
  .pro .chip { background: #f3f4f6; color: #1f2937; padding: 4px 12px; border-radius: 9999px; font-size: 13px; }
</style>
<div class="pro">
  <header>
    <h1>{{.Info.Name}}</h1>
    <div class="contact">
      {{if .Info.Email}}<span>{{.Info.Email}}</span>{{end}}
      {{if .Info.Phone}}<span>{{.Info.Phone}}</span>{{end}}
      {{if .Info.Address}}<span>{{.Info.Address}}</span>{{end}}
      {{if .Info.LinkedIn}}<span>{{.Info.LinkedIn}}</span>{{end}}
      {{if .Info.Website}}<span>{{.Info.Website}}</span>{{end}}
    </div>
  </header>

  {{if .Summary}}
  <section>
    <h2>Professional Summary</h2>
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
    <div class="chips">
      {{range .Skills}}<span class="chip">{{.}}</span>{{end}}
    </div>
  </section>
  {{end}}
</div>
`

type professionalStrategy struct {
	tpl *template.Template
}

func newProfessionalStrategy() *professionalStrategy {
	return &professionalStrategy{
		tpl: template.Must(template.New("professional").Funcs(funcMap()).Parse(professionalHTML)),
	}
}

func (s *professionalStrategy) Name() resume.Template {
	return resume.TemplateProfessional
}

func (s *professionalStrategy) Render(content resume.Content) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.tpl.Execute(&buf, newView(content)); err != nil {
		return "", fmt.Errorf("render professional template: %w", err)
	}
	return template.HTML(buf.String()), nil
}
