// Package rendering renders resume data into LaTeX source whose page geometry
// follows the layout carried by a compression directive.
package rendering

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/types"
)

//go:embed templates/resume.tex.tmpl
var defaultTemplate string

// Template delimiters. LaTeX uses braces heavily, so the Go defaults would
// collide with ordinary markup such as \textbf{{...}}.
const (
	leftDelim  = "<<"
	rightDelim = ">>"
)

// Document is the escaped view passed to the template
type Document struct {
	Layout          planning.Layout
	Header          Header
	Education       []Entry
	Experience      []Entry
	Projects        []Entry
	Skills          []string
	Extracurricular []Entry
	Certifications  []string
	Achievements    []string
}

// Header is the contact block
type Header struct {
	Name    string
	Contact []string
	Links   []string
}

// Entry is one two-line block (title/right, subtitle/subright) with bullets.
// Gap is the vertical space emitted before the entry; the first entry of a
// section has none.
type Entry struct {
	Title    string
	Right    string
	Subtitle string
	SubRight string
	Bullets  []string
	Gap      string
}

// Renderer renders resumes with a parsed template. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer returns a Renderer using the built-in template
func NewRenderer() (*Renderer, error) {
	tmpl, err := parseTemplate("resume", defaultTemplate)
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// NewRendererFromFile returns a Renderer using a template file written with
// << >> delimiters
func NewRendererFromFile(templatePath string) (*Renderer, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{Template: templatePath, Message: "template file not found", Cause: err}
		}
		return nil, &TemplateError{Template: templatePath, Message: "failed to read template file", Cause: err}
	}
	tmpl, err := parseTemplate(templatePath, string(content))
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

func parseTemplate(name, content string) (*template.Template, error) {
	tmpl, err := template.New(name).
		Delims(leftDelim, rightDelim).
		Funcs(template.FuncMap{
			"escape": EscapeLaTeX,
			"join":   strings.Join,
		}).
		Parse(content)
	if err != nil {
		return nil, &TemplateError{Template: name, Message: "failed to parse template", Cause: err}
	}
	return tmpl, nil
}

// Render produces the LaTeX source for data with the directive's layout
func (r *Renderer) Render(data types.ResumeData, directive planning.Directive) (string, error) {
	doc, err := BuildDocument(data, directive.Layout)
	if err != nil {
		return "", &RenderError{Tier: directive.Tier, Message: "failed to build template data", Cause: err}
	}

	var out strings.Builder
	if err := r.tmpl.Execute(&out, doc); err != nil {
		return "", &TemplateError{Template: r.tmpl.Name(), Message: "failed to execute template", Cause: err}
	}
	return out.String(), nil
}

// BuildDocument escapes data into the template view. Empty sections stay nil
// so the template omits them.
func BuildDocument(data types.ResumeData, layout planning.Layout) (*Document, error) {
	if layout.FontSizePt <= 0 {
		return nil, fmt.Errorf("layout has no font size")
	}
	return &Document{
		Layout:          layout,
		Header:          buildHeader(data.Personal),
		Education:       spaced(educationEntries(data.Education), layout.EntrySpace),
		Experience:      spaced(experienceEntries(data.Experience), layout.EntrySpace),
		Projects:        spaced(projectEntries(data.Projects), layout.EntrySpace),
		Skills:          skillLines(data.Skills),
		Extracurricular: spaced(extracurricularEntries(data.Extracurricular), layout.EntrySpace),
		Certifications:  certificationItems(data.Certifications),
		Achievements:    achievementLines(data.Achievements),
	}, nil
}

func buildHeader(p types.PersonalInfo) Header {
	h := Header{Name: EscapeLaTeX(p.Name)}
	if strings.TrimSpace(p.Name) == "" {
		h.Name = "Your Name"
	}
	if p.Location != "" {
		h.Contact = append(h.Contact, EscapeLaTeX(p.Location))
	}
	if p.Phone != "" {
		h.Contact = append(h.Contact, EscapeLaTeX(p.Phone))
	}
	if p.Email != "" {
		h.Contact = append(h.Contact, fmt.Sprintf(`\href{mailto:%s}{%s}`, escapeURL(p.Email), EscapeLaTeX(p.Email)))
	}
	for _, link := range []string{p.LinkedIn, p.GitHub, p.Portfolio} {
		if link == "" {
			continue
		}
		h.Links = append(h.Links, fmt.Sprintf(`\href{%s}{\underline{%s}}`, escapeURL(link), EscapeLaTeX(stripScheme(link))))
	}
	return h
}

func educationEntries(list []types.Education) []Entry {
	out := make([]Entry, 0, len(list))
	for _, edu := range list {
		degree := edu.Degree
		if edu.FieldOfStudy != "" {
			degree = fmt.Sprintf("%s in %s", degree, edu.FieldOfStudy)
		}
		if edu.GPA != "" {
			degree = fmt.Sprintf("%s, GPA: %s", degree, edu.GPA)
		}
		e := Entry{
			Title:    EscapeLaTeX(edu.Institution),
			Subtitle: EscapeLaTeX(degree),
			SubRight: dateRange(edu.StartDate, edu.EndDate),
		}
		if len(edu.Coursework) > 0 {
			e.Bullets = append(e.Bullets, "Relevant Coursework: "+joinEscaped(edu.Coursework, ", "))
		}
		e.Bullets = append(e.Bullets, escapeAll(edu.Achievements)...)
		out = append(out, e)
	}
	return out
}

func experienceEntries(list []types.Experience) []Entry {
	out := make([]Entry, 0, len(list))
	for _, exp := range list {
		end := exp.EndDate
		if exp.IsCurrent {
			end = "Present"
		}
		out = append(out, Entry{
			Title:    EscapeLaTeX(exp.Company),
			Right:    EscapeLaTeX(exp.Location),
			Subtitle: EscapeLaTeX(exp.Title),
			SubRight: dateRange(exp.StartDate, end),
			Bullets:  escapeAll(exp.Bullets),
		})
	}
	return out
}

func projectEntries(list []types.Project) []Entry {
	out := make([]Entry, 0, len(list))
	for _, p := range list {
		out = append(out, Entry{
			Title:   EscapeLaTeX(p.Name),
			Right:   dateRange(p.StartDate, p.EndDate),
			Bullets: escapeAll(p.Bullets),
		})
	}
	return out
}

func extracurricularEntries(list []types.Extracurricular) []Entry {
	out := make([]Entry, 0, len(list))
	for _, x := range list {
		out = append(out, Entry{
			Title:    EscapeLaTeX(x.Organization),
			Right:    dateRange(x.StartDate, x.EndDate),
			Subtitle: EscapeLaTeX(x.Role),
			Bullets:  escapeAll(x.Bullets),
		})
	}
	return out
}

func skillLines(s types.Skills) []string {
	var out []string
	for _, c := range s.Categories() {
		out = append(out, fmt.Sprintf(`\textbf{%s:} %s`, EscapeLaTeX(c.Label), joinEscaped(c.Items, ", ")))
	}
	return out
}

func certificationItems(list []types.Certification) []string {
	var out []string
	for _, c := range list {
		item := EscapeLaTeX(c.Name)
		if c.Issuer != "" {
			item = fmt.Sprintf("%s (%s)", item, EscapeLaTeX(c.Issuer))
		}
		out = append(out, item)
	}
	return out
}

func achievementLines(list []types.Achievement) []string {
	var out []string
	for _, a := range list {
		line := `\textbf{` + EscapeLaTeX(a.Title) + `}`
		if a.Description != "" {
			line += " -- " + EscapeLaTeX(a.Description)
		}
		if a.Date != "" {
			line += ` \hfill ` + EscapeLaTeX(a.Date)
		}
		out = append(out, line)
	}
	return out
}

// spaced sets Gap on every entry after the first
func spaced(entries []Entry, gap string) []Entry {
	if len(entries) == 0 {
		return nil
	}
	for i := 1; i < len(entries); i++ {
		entries[i].Gap = gap
	}
	return entries
}

func dateRange(start, end string) string {
	start, end = EscapeLaTeX(start), EscapeLaTeX(end)
	switch {
	case start != "" && end != "":
		return start + " -- " + end
	case start != "":
		return start
	default:
		return end
	}
}

func escapeAll(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = EscapeLaTeX(s)
	}
	return out
}

func joinEscaped(items []string, sep string) string {
	return strings.Join(escapeAll(items), sep)
}

func stripScheme(u string) string {
	u = strings.TrimPrefix(u, "https://")
	return strings.TrimPrefix(u, "http://")
}

// escapeURL makes a URL safe inside \href's first argument, where only
// % # and braces need care
func escapeURL(u string) string {
	r := strings.NewReplacer(`%`, `\%`, `#`, `\#`, `{`, ``, `}`, ``, `\`, ``)
	return r.Replace(u)
}
