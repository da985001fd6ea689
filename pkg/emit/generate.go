package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/flowbotio/flowbot/pkg/graph"
)

// GenerateOptions configures source generation.
type GenerateOptions struct {
	// BotName identifies the generated bot in its logs. Defaults to the
	// graph's name, or "flowbot" when the document is unnamed.
	BotName string
}

// The generated program embeds the source document verbatim and runs it
// through the same load, emit, and engine path the interpreter uses, so the
// two cannot diverge behaviorally.
const sourceTemplate = `// Code generated by flowbot compile. DO NOT EDIT.
package main

import (
	"fmt"
	"os"

	"github.com/flowbotio/flowbot/pkg/cmd"
)

const graphDocument = {{.Document}}

func main() {
	err := cmd.RunEmbedded({{printf "%q" .BotName}}, []byte(graphDocument))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
`

// GenerateSource compiles a flow document into a standalone Go main package.
// The document is validated first; generation refuses documents with fatal
// findings.
func GenerateSource(document []byte, opts GenerateOptions) ([]byte, error) {
	loaded, findings := graph.Load(document)
	if graph.HasFatal(findings) {
		return nil, fmt.Errorf("document has %d validation errors", countFatal(findings))
	}

	name := opts.BotName
	if name == "" {
		name = loaded.Name
	}

	if name == "" {
		name = "flowbot"
	}

	tmpl, err := template.New("main").Parse(sourceTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse source template: %w", err)
	}

	data := struct {
		Document string
		BotName  string
	}{
		Document: backquote(document),
		BotName:  name,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render source template: %w", err)
	}

	source, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}

	return source, nil
}

func countFatal(findings []graph.ValidationError) int {
	count := 0

	for _, finding := range findings {
		if !finding.Warning {
			count++
		}
	}

	return count
}

// backquote embeds the raw document as a Go string literal, splicing around
// any backquotes it contains.
func backquote(document []byte) string {
	text := string(document)
	if !strings.Contains(text, "`") {
		return "`" + text + "`"
	}

	return "`" + strings.ReplaceAll(text, "`", "` + \"`\" + `") + "`"
}
