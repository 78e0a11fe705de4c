package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resume-compressor/internal/normalize"
	"github.com/jonathan/resume-compressor/internal/validation"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// It provides a reusable way to define what information to extract from text.
type ExtractionSchema struct {
	Name        string        // Schema name, e.g. "Resume"
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]string"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	// Instructions
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	sb.WriteString(validation.QuoteExternalContent(inputText, "input text"))
	sb.WriteString("\n")

	return sb.String()
}

// ResumeSchema returns the extraction schema for plain-text resumes. Field
// names follow the resume data document so the output can be normalized
// directly.
func ResumeSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "Resume",
		Description: `You are an expert resume parser. COPY TEXT VERBATIM - do not paraphrase, summarize, or reword.
Your task is to convert a plain-text resume into structured data.
Keep every bullet point exactly as written. Dates use "Mon YYYY" when the month is known, otherwise "YYYY".`,
		Fields: []SchemaField{
			{
				Name:        "personal",
				Type:        `{"name": "string", "email": "string", "phone": "string", "location": "string", "linkedin": "string", "github": "string", "portfolio": "string"}`,
				Description: "Contact details; omit keys that are not present",
				Required:    true,
			},
			{
				Name:        "education",
				Type:        `[{"degree": "string", "field_of_study": "string", "institution": "string", "location": "string", "start_date": "string", "end_date": "string", "gpa": "string", "coursework": ["string"], "achievements": ["string"]}]`,
				Description: "Degrees, most recent first",
			},
			{
				Name:        "experience",
				Type:        `[{"title": "string", "company": "string", "location": "string", "start_date": "string", "end_date": "string", "is_current": false, "bullets": ["string"]}]`,
				Description: "Jobs, most recent first; bullets verbatim",
				Required:    true,
			},
			{
				Name:        "projects",
				Type:        `[{"name": "string", "technologies": ["string"], "start_date": "string", "end_date": "string", "bullets": ["string"]}]`,
				Description: "Personal or academic projects",
			},
			{
				Name:        "skills",
				Type:        `{"languages": ["string"], "frameworks": ["string"], "tools": ["string"], "databases": ["string"], "cloud": ["string"], "other": ["string"]}`,
				Description: "Technical skills grouped by kind",
			},
			{
				Name: "certifications",
				Type: `[{"name": "string", "issuer": "string", "date": "string"}]`,
			},
			{
				Name: "achievements",
				Type: `[{"title": "string", "description": "string", "date": "string"}]`,
			},
			{
				Name: "extracurricular",
				Type: `[{"organization": "string", "role": "string", "start_date": "string", "end_date": "string", "bullets": ["string"]}]`,
			},
		},
	}
}

// ResumeExtractor turns free-text resumes into normalized resume data
type ResumeExtractor struct {
	client Client
	tier   ModelTier
	logger *zap.Logger
}

// NewResumeExtractor creates a ResumeExtractor on the lite tier
func NewResumeExtractor(client Client, logger *zap.Logger) *ResumeExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumeExtractor{client: client, tier: TierLite, logger: logger}
}

// Extract runs the resume schema over text and normalizes the model output
func (e *ResumeExtractor) Extract(ctx context.Context, text string) (*normalize.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no resume text to extract")
	}

	raw, err := e.client.GenerateJSON(ctx, BuildExtractionPrompt(ResumeSchema(), text), e.tier)
	if err != nil {
		return nil, fmt.Errorf("extract resume: %w", err)
	}

	result, err := normalize.Normalize([]byte(CleanJSONBlock(raw)))
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		e.logger.Warn("extracted field coerced", zap.String("field", w.Field), zap.String("message", w.Message))
	}
	return result, nil
}
