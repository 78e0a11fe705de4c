// Package prompts holds the model prompt templates embedded at compile time.
// Each JSON file maps a prompt key to a template with {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// CompressionFile holds the rewrite and review prompts
const CompressionFile = "compression.json"

// Prompt keys in CompressionFile
const (
	KeyRewriteBullets = "rewrite-bullets"
	KeyReviewResume   = "review-resume"
)

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z]+)\}\}`)

// template is a prompt with its placeholder names extracted once at load
type template struct {
	text   string
	fields []string
}

var (
	catalogs   = make(map[string]map[string]template)
	catalogsMu sync.RWMutex
)

// get returns the raw template for key in filename
func get(filename, key string) (string, error) {
	t, err := lookup(filename, key)
	if err != nil {
		return "", err
	}
	return t.text, nil
}

// Render fills every placeholder of a prompt. A placeholder without a value
// is an error so a renamed field cannot silently reach the model.
func Render(filename, key string, data map[string]string) (string, error) {
	t, err := lookup(filename, key)
	if err != nil {
		return "", err
	}
	var missing []string
	for _, f := range t.fields {
		if _, ok := data[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s: placeholders without values: %s", key, strings.Join(missing, ", "))
	}
	return format(t.text, data), nil
}

// format replaces {{.Key}} placeholders with values from data in one pass,
// so values are never expanded again. Unknown placeholders are left in place.
func format(text string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := data[m[3:len(m)-2]]; ok {
			return v
		}
		return m
	})
}

// placeholderNames lists the distinct placeholder names of a prompt, sorted
func placeholderNames(filename, key string) ([]string, error) {
	t, err := lookup(filename, key)
	if err != nil {
		return nil, err
	}
	return slices.Clone(t.fields), nil
}

// list returns the prompt keys in a file, sorted
func list(filename string) ([]string, error) {
	catalog, err := loadFile(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(catalog))
	for key := range catalog {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func lookup(filename, key string) (template, error) {
	catalog, err := loadFile(filename)
	if err != nil {
		return template{}, err
	}
	t, ok := catalog[key]
	if !ok {
		return template{}, fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return t, nil
}

func loadFile(filename string) (map[string]template, error) {
	catalogsMu.RLock()
	catalog, ok := catalogs[filename]
	catalogsMu.RUnlock()
	if ok {
		return catalog, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	catalog = make(map[string]template, len(raw))
	for key, text := range raw {
		var fields []string
		for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
			fields = append(fields, m[1])
		}
		sort.Strings(fields)
		catalog[key] = template{text: text, fields: slices.Compact(fields)}
	}

	catalogsMu.Lock()
	catalogs[filename] = catalog
	catalogsMu.Unlock()
	return catalog, nil
}
