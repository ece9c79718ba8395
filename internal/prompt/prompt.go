// Package prompt builds the system prompts for every assistant use case.
//
// Builders are pure: the same context always renders the same text. The
// context is embedded verbatim as indented JSON and every enumerated field is
// rendered from the Go taxonomies, so a prompt can never advertise a literal
// the parsers would reject.
package prompt

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

type templateDoc struct {
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

var templates = mustLoadTemplates(templatesYAML)

func mustLoadTemplates(raw []byte) map[string]*template.Template {
	var docs map[string]templateDoc
	if err := yaml.Unmarshal(raw, &docs); err != nil {
		panic("prompt: failed to decode templates: " + err.Error())
	}

	funcs := template.FuncMap{"literals": literals}
	out := make(map[string]*template.Template, len(docs))
	for name, doc := range docs {
		out[name] = template.Must(template.New(name).Funcs(funcs).Option("missingkey=error").Parse(doc.Template))
	}
	return out
}

// literals renders a taxonomy as `"a" | "b" | "c"`.
func literals(values any) (string, error) {
	var items []string
	switch v := values.(type) {
	case []string:
		items = v
	default:
		return "", fmt.Errorf("literals: unsupported type %T", values)
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = `"` + item + `"`
	}
	return strings.Join(quoted, " | "), nil
}

func render(name string, data map[string]any, context any) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", name)
	}

	ctxJSON, err := json.MarshalIndent(context, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize %s context: %w", name, err)
	}
	data["Context"] = string(ctxJSON)

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return sb.String(), nil
}
