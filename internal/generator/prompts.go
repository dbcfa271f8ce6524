package generator

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"aigateway/internal/generator/models"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(
	template.New("prompts").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"lower": strings.ToLower,
			"join":  strings.Join,
		}).
		ParseFS(promptFS, "prompts/*.tmpl"),
)

// renderPrompts executes the "<kind>.system" and "<kind>.user" templates with data.
func renderPrompts(kind models.Kind, data any) (system, user string, err error) {
	system, err = execute(kind.String()+".system", data)
	if err != nil {
		return "", "", err
	}
	user, err = execute(kind.String()+".user", data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
