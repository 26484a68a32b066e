package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shll/contractsync/pkg/syncer"
)

// OutputFormat names a rendering of a sync report.
type OutputFormat string

const (
	TableFormat OutputFormat = "table"
	JSONFormat  OutputFormat = "json"
	YAMLFormat  OutputFormat = "yaml"
)

var formatNames = map[string]OutputFormat{
	"":      TableFormat,
	"table": TableFormat,
	"json":  JSONFormat,
	"yaml":  YAMLFormat,
	"yml":   YAMLFormat,
}

// ParseOutputFormat maps a --format value, case-insensitively, to an
// OutputFormat. An empty value selects the table.
func ParseOutputFormat(s string) (OutputFormat, error) {
	f, ok := formatNames[strings.ToLower(s)]
	if !ok {
		return "", fmt.Errorf("unknown output format %q (valid formats: %s)", s, strings.Join(validNames(), ", "))
	}
	return f, nil
}

func validNames() []string {
	var names []string
	for name := range formatNames {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Formatter renders a report to the writer it was created with.
type Formatter interface {
	Format(report *syncer.Report) error
}

func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	switch format {
	case JSONFormat:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return &documentFormatter{encode: enc.Encode}
	case YAMLFormat:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &documentFormatter{encode: enc.Encode, flush: enc.Close}
	default:
		return &TableFormatter{writer: w}
	}
}

// documentFormatter serializes the whole report with a structured encoder.
type documentFormatter struct {
	encode func(any) error
	flush  func() error
}

func (f *documentFormatter) Format(report *syncer.Report) error {
	if err := f.encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if f.flush != nil {
		return f.flush()
	}
	return nil
}
