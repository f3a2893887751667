package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/api"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatMarkdown:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", apperr.InvalidArgument("export.format", "format %q must be one of table, json, markdown", s)
	}
}

type TableConfig struct {
	NameWidth        int
	ValueWidth       int
	UnitWidth        int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:        40,
		ValueWidth:       14,
		UnitWidth:        12,
		DescriptionWidth: 54,
	}
}

// Report is the printable view shared by every command.
type Report struct {
	Title       string
	Period      *api.TimePeriod
	Currency    string
	TotalLabel  string
	TotalAmount float64
	Sections    []Section
	Warnings    []api.Warning
}

type Section struct {
	Title   string
	Summary []Metric
	Details []Detail
	// Advice is printed under the details in markdown output.
	Advice string
}

type Metric struct {
	Name  string
	Value string
}

type Detail struct {
	Name        string
	Value       string
	Unit        string
	Description string
}

type Reporter struct {
	writer io.Writer
	config TableConfig
	format Format
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
		format: FormatTable,
	}
}

func (c *Reporter) WithFormat(f Format) *Reporter {
	clone := *c
	clone.format = f
	return &clone
}

func (c *Reporter) WithWriter(w io.Writer) *Reporter {
	clone := *c
	clone.writer = w
	return &clone
}

// Handle prints v as JSON, or the report view in the configured text format.
func (c *Reporter) Handle(v any, report Report) error {
	switch c.format {
	case FormatJSON:
		enc := json.NewEncoder(c.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatMarkdown:
		return c.render(markdownTemplate, report)
	default:
		return c.render(tableTemplate, report)
	}
}

func (c *Reporter) render(tmpl string, report Report) error {
	funcMap := template.FuncMap{
		"formatRow": func(name, value, unit, desc string) string {
			return fmt.Sprintf("| %-*s | %*s | %-*s | %-*s |",
				c.config.NameWidth, truncate(name, c.config.NameWidth),
				c.config.ValueWidth, value,
				c.config.UnitWidth, unit,
				c.config.DescriptionWidth, truncate(desc, c.config.DescriptionWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.UnitWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
		"money": Money,
	}

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, report)
}

const tableTemplate = `
{{.Title}}{{with .Period}} ({{.Duration}} days)
Period: {{.Start.Format "2006-01-02"}} to {{.End.Format "2006-01-02"}}{{end}}
{{.TotalLabel}}: {{.Currency}} {{money .TotalAmount}}
{{range .Sections}}
=== {{.Title}} ===
{{range .Summary}}{{.Name}}: {{.Value}}
{{end}}{{if .Details}}
{{separator}}
{{formatRow "Name" "Value" "Unit" "Description"}}
{{separator}}
{{range .Details}}{{formatRow .Name .Value .Unit .Description}}
{{end}}{{separator}}
{{end}}{{end}}{{if .Warnings}}
Warnings:
{{range .Warnings}}- [{{.Kind}}] {{.Subject}}: {{.Message}}
{{end}}{{end}}`

const markdownTemplate = `# {{.Title}}
{{with .Period}}**Period:** {{.Start.Format "2006-01-02"}} to {{.End.Format "2006-01-02"}}
{{end}}**{{.TotalLabel}}:** ${{money .TotalAmount}}
{{range .Sections}}
## {{.Title}}
{{range .Summary}}- **{{.Name}}:** {{.Value}}
{{end}}{{if .Details}}
| Name | Value | Unit | Description |
|------|-------|------|-------------|
{{range .Details}}| {{.Name}} | {{.Value}} | {{.Unit}} | {{.Description}} |
{{end}}{{end}}{{with .Advice}}
**Recommendation:** {{.}}
{{end}}{{end}}{{if .Warnings}}
## Warnings
{{range .Warnings}}- {{.Subject}}: {{.Message}}
{{end}}{{end}}`

// Money formats an amount with thousands separators and two decimals.
func Money(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

func truncate(s string, n int) string {
	if len(s) <= n || n < 4 {
		return s
	}
	return s[:n-3] + "..."
}
