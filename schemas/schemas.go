// Package schemas embeds the JSON Schemas for resume input documents and run
// reports.
package schemas

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed *.schema.json
var files embed.FS

// Schema file names
const (
	ResumeData = "resume_data.schema.json"
	RunReport  = "run_report.schema.json"
)

// Read returns an embedded schema by file name
func Read(name string) ([]byte, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("schema %s not embedded: %w", name, err)
	}
	return data, nil
}

// Names lists the embedded schema files
func Names() []string {
	matches, _ := fs.Glob(files, "*.schema.json")
	sort.Strings(matches)
	return matches
}
