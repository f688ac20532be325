package analysis

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const playbookTemplate = "playbook_prompt.tmpl"

// PromptBuilder renders the playbook prompt from its template.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder parses the embedded prompt template.
func NewPromptBuilder() (*PromptBuilder, error) {
	funcMap := template.FuncMap{
		"yesno": yesno,
	}

	tmpl, err := template.New(playbookTemplate).Funcs(funcMap).ParseFS(templateFS, "templates/"+playbookTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", playbookTemplate, err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// PromptData contains the data embedded in the playbook prompt.
type PromptData struct {
	Context *features.DomainInfo
	Summary string
}

// BuildPlaybookPrompt embeds the summary verbatim into the instructions.
func (pb *PromptBuilder) BuildPlaybookPrompt(data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := pb.tmpl.ExecuteTemplate(&buf, playbookTemplate, data); err != nil {
		return "", fmt.Errorf("failed to execute %s: %w", playbookTemplate, err)
	}
	return buf.String(), nil
}

func yesno(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
