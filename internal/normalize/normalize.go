// Package normalize coerces loosely typed resume JSON, as produced by language
// models and hand-written files, into the strict types.ResumeData schema.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-compressor/internal/types"
)

// CoercionError records a field that could not be coerced and was dropped
// or defaulted
type CoercionError struct {
	Field   string
	Message string
}

func (e CoercionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseError means the input is not a JSON object at all
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("normalize error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("normalize error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Result is the normalized resume plus every coercion that lost information
type Result struct {
	Data     types.ResumeData
	Warnings []CoercionError
}

// Normalize parses raw JSON and coerces it into ResumeData. Only a malformed
// document or a non-object root is an error; everything else degrades to
// warnings.
func Normalize(raw []byte) (*Result, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, &ParseError{Message: "invalid JSON", Cause: err}
	}
	m, ok := root.(map[string]any)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("expected a JSON object, got %s", kind(root))}
	}
	return NormalizeMap(m), nil
}

// NormalizeMap coerces an already decoded JSON object
func NormalizeMap(m map[string]any) *Result {
	c := &coercer{}
	data := types.ResumeData{
		Personal:        c.personal(first(m, "personal", "personal_info", "contact")),
		Education:       c.education(first(m, "education")),
		Experience:      c.experience(first(m, "experience", "work_experience", "work")),
		Projects:        c.projects(first(m, "projects")),
		Skills:          c.skills(first(m, "skills", "technical_skills")),
		Certifications:  c.certifications(first(m, "certifications", "certificates")),
		Achievements:    c.achievements(first(m, "achievements", "awards", "honors")),
		Extracurricular: c.extracurricular(first(m, "extracurricular", "extracurriculars", "activities")),
	}
	return &Result{Data: data, Warnings: c.warnings}
}

type coercer struct {
	warnings []CoercionError
}

func (c *coercer) warn(field, format string, args ...any) {
	c.warnings = append(c.warnings, CoercionError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *coercer) personal(v any) types.PersonalInfo {
	m, ok := c.object("personal", v)
	if !ok {
		return types.PersonalInfo{}
	}
	return types.PersonalInfo{
		Name:      c.str("personal.name", first(m, "name", "full_name")),
		Email:     c.str("personal.email", first(m, "email")),
		Phone:     FormatPhone(c.str("personal.phone", first(m, "phone", "phone_number"))),
		LinkedIn:  c.str("personal.linkedin", first(m, "linkedin", "linkedin_url")),
		GitHub:    c.str("personal.github", first(m, "github", "github_url")),
		Portfolio: c.str("personal.portfolio", first(m, "portfolio", "website")),
		Location:  c.str("personal.location", first(m, "location", "address")),
	}
}

func (c *coercer) education(v any) []types.Education {
	var out []types.Education
	for i, m := range c.entries("education", v) {
		f := fmt.Sprintf("education[%d]", i)
		out = append(out, types.Education{
			Institution:  c.str(f+".institution", first(m, "institution", "school", "university")),
			Degree:       c.str(f+".degree", first(m, "degree")),
			FieldOfStudy: c.str(f+".field_of_study", first(m, "field_of_study", "major", "field")),
			StartDate:    NormalizeDate(c.str(f+".start_date", first(m, "start_date"))),
			EndDate:      NormalizeDate(c.str(f+".end_date", first(m, "end_date", "graduation_date"))),
			GPA:          c.str(f+".gpa", first(m, "gpa")),
			Coursework:   c.list(f+".coursework", first(m, "coursework", "relevant_coursework"), ","),
			Achievements: c.list(f+".achievements", first(m, "achievements", "honors", "bullets"), "\n"),
		})
	}
	return out
}

func (c *coercer) experience(v any) []types.Experience {
	var out []types.Experience
	for i, m := range c.entries("experience", v) {
		f := fmt.Sprintf("experience[%d]", i)
		e := types.Experience{
			Company:      c.str(f+".company", first(m, "company", "organization", "employer")),
			Title:        c.str(f+".title", first(m, "title", "position", "role")),
			Location:     c.str(f+".location", first(m, "location")),
			StartDate:    NormalizeDate(c.str(f+".start_date", first(m, "start_date"))),
			EndDate:      NormalizeDate(c.str(f+".end_date", first(m, "end_date"))),
			IsCurrent:    c.boolean(f+".is_current", first(m, "is_current", "current")),
			Bullets:      c.list(f+".bullets", first(m, "bullets", "responsibilities", "highlights"), "\n"),
			Technologies: c.list(f+".technologies", first(m, "technologies", "tech_stack"), ","),
		}
		if e.EndDate == presentLabel {
			e.IsCurrent = true
		}
		if e.IsCurrent && e.EndDate == "" {
			e.EndDate = presentLabel
		}
		out = append(out, e)
	}
	return out
}

func (c *coercer) projects(v any) []types.Project {
	var out []types.Project
	for i, m := range c.entries("projects", v) {
		f := fmt.Sprintf("projects[%d]", i)
		out = append(out, types.Project{
			Name:         c.str(f+".name", first(m, "name", "title")),
			Description:  c.str(f+".description", first(m, "description")),
			URL:          c.str(f+".url", first(m, "url", "link")),
			StartDate:    NormalizeDate(c.str(f+".start_date", first(m, "start_date"))),
			EndDate:      NormalizeDate(c.str(f+".end_date", first(m, "end_date"))),
			Bullets:      c.list(f+".bullets", first(m, "bullets", "highlights"), "\n"),
			Technologies: c.list(f+".technologies", first(m, "technologies", "tech_stack"), ","),
		})
	}
	return out
}

func (c *coercer) skills(v any) types.Skills {
	switch t := v.(type) {
	case nil:
		return types.Skills{}
	case string, []any:
		return types.Skills{Other: dedupe(c.list("skills", t, ","))}
	case map[string]any:
		return types.Skills{
			Languages:  dedupe(c.list("skills.languages", first(t, "languages", "programming_languages"), ",")),
			Frameworks: dedupe(c.list("skills.frameworks", first(t, "frameworks", "libraries"), ",")),
			Tools:      dedupe(c.list("skills.tools", first(t, "tools"), ",")),
			Databases:  dedupe(c.list("skills.databases", first(t, "databases"), ",")),
			Cloud:      dedupe(c.list("skills.cloud", first(t, "cloud", "cloud_platforms"), ",")),
			SoftSkills: dedupe(c.list("skills.soft_skills", first(t, "soft_skills"), ",")),
			Other:      dedupe(c.list("skills.other", first(t, "other"), ",")),
		}
	default:
		c.warn("skills", "expected object, list or string, got %s", kind(v))
		return types.Skills{}
	}
}

func (c *coercer) certifications(v any) []types.Certification {
	var out []types.Certification
	for i, item := range c.items("certifications", v) {
		f := fmt.Sprintf("certifications[%d]", i)
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, types.Certification{Name: s})
			}
		case map[string]any:
			out = append(out, types.Certification{
				Name:         c.strOr(f+".name", "Certification", first(t, "name", "title")),
				Issuer:       c.str(f+".issuer", first(t, "issuer", "organization")),
				Date:         c.str(f+".date", first(t, "date")),
				URL:          c.str(f+".url", first(t, "url", "link")),
				CredentialID: c.str(f+".credential_id", first(t, "credential_id")),
			})
		default:
			c.warn(f, "expected object or string, got %s", kind(item))
		}
	}
	return out
}

func (c *coercer) achievements(v any) []types.Achievement {
	var out []types.Achievement
	for i, item := range c.items("achievements", v) {
		f := fmt.Sprintf("achievements[%d]", i)
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, types.Achievement{Title: s})
			}
		case map[string]any:
			out = append(out, types.Achievement{
				Title:       c.strOr(f+".title", "Achievement", first(t, "title", "name")),
				Description: c.str(f+".description", first(t, "description")),
				Date:        c.str(f+".date", first(t, "date")),
			})
		default:
			c.warn(f, "expected object or string, got %s", kind(item))
		}
	}
	return out
}

func (c *coercer) extracurricular(v any) []types.Extracurricular {
	var out []types.Extracurricular
	for i, item := range c.items("extracurricular", v) {
		f := fmt.Sprintf("extracurricular[%d]", i)
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, types.Extracurricular{Organization: s})
			}
		case map[string]any:
			out = append(out, types.Extracurricular{
				Organization: c.strOr(f+".organization", "Activity", first(t, "organization", "name", "title")),
				Role:         c.str(f+".role", first(t, "role", "position")),
				Description:  c.str(f+".description", first(t, "description")),
				StartDate:    NormalizeDate(c.str(f+".start_date", first(t, "start_date"))),
				EndDate:      NormalizeDate(c.str(f+".end_date", first(t, "end_date"))),
				Bullets:      c.list(f+".bullets", first(t, "bullets", "highlights"), "\n"),
			})
		default:
			c.warn(f, "expected object or string, got %s", kind(item))
		}
	}
	return out
}

// items returns list elements; a single object or string becomes a
// one-element list
func (c *coercer) items(field string, v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case map[string]any, string:
		return []any{t}
	default:
		c.warn(field, "expected list, got %s", kind(v))
		return nil
	}
}

// entries returns the object elements of a list section
func (c *coercer) entries(field string, v any) []map[string]any {
	var out []map[string]any
	for i, item := range c.items(field, v) {
		m, ok := item.(map[string]any)
		if !ok {
			c.warn(fmt.Sprintf("%s[%d]", field, i), "expected object, got %s", kind(item))
			continue
		}
		out = append(out, m)
	}
	return out
}

func (c *coercer) object(field string, v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		c.warn(field, "expected object, got %s", kind(v))
	}
	return m, ok
}

func (c *coercer) str(field string, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		c.warn(field, "expected string, got %s", kind(v))
		return ""
	}
}

// strOr falls back to def when the value is missing or blank
func (c *coercer) strOr(field, def string, v any) string {
	if s := c.str(field, v); s != "" {
		return s
	}
	return def
}

func (c *coercer) boolean(field string, v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "present", "current", "1":
			return true
		case "", "false", "no", "n", "0":
			return false
		}
		c.warn(field, "unrecognised boolean %q", t)
		return false
	case json.Number:
		return t.String() != "0"
	default:
		c.warn(field, "expected boolean, got %s", kind(v))
		return false
	}
}

// list coerces a string list. A plain string is split on sep; bullet glyphs
// and blanks are dropped.
func (c *coercer) list(field string, v any, sep string) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(t, sep)
	case []any:
		for i, item := range t {
			switch s := item.(type) {
			case string:
				raw = append(raw, s)
			case json.Number:
				raw = append(raw, s.String())
			default:
				c.warn(fmt.Sprintf("%s[%d]", field, i), "expected string, got %s", kind(item))
			}
		}
	default:
		c.warn(field, "expected list or string, got %s", kind(v))
		return nil
	}

	var out []string
	for _, s := range raw {
		if s = cleanItem(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

const bulletGlyphs = "•▪◦●·‣-*–—"

func cleanItem(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, bulletGlyphs)
	return strings.TrimSpace(s)
}

// first returns the value of the first key present in m
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func dedupe(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

const presentLabel = "Present"

var nonDigit = regexp.MustCompile(`\D`)

// FormatPhone formats 10-digit and +1 11-digit numbers; anything else is
// returned unchanged
func FormatPhone(phone string) string {
	digits := nonDigit.ReplaceAllString(phone, "")
	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:])
	default:
		return phone
	}
}

// NormalizeDate maps open-ended markers to "Present" and leaves other dates as written
func NormalizeDate(date string) string {
	switch strings.ToLower(strings.TrimSpace(date)) {
	case "present", "current", "now", "ongoing":
		return presentLabel
	}
	return strings.TrimSpace(date)
}
