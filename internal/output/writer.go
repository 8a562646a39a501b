package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
)

// Format selects the record serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (expected json or csv)", s)
}

// Mode controls JSON formatting behavior.
type Mode int

const (
	ModeAuto    Mode = iota // Detect TTY: pretty if terminal, compact if piped
	ModePretty              // Force indented JSON
	ModeCompact             // Force single-line JSON
)

// Printer manages output formatting.
type Printer struct {
	stdout io.Writer
	stderr io.Writer
	mode   Mode
	quiet  bool
}

// NewPrinter creates a Printer.
func NewPrinter(stdout, stderr io.Writer, mode Mode, quiet bool) *Printer {
	if quiet {
		color.NoColor = true
	}
	return &Printer{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		quiet:  quiet,
	}
}

// JSON writes v as JSON to stdout.
func (p *Printer) JSON(v any) error {
	return p.writeJSON(p.stdout, v)
}

func (p *Printer) writeJSON(w io.Writer, v any) error {
	var data []byte
	var err error

	switch p.effectiveMode() {
	case ModePretty:
		data, err = json.MarshalIndent(v, "", "  ")
	default:
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}

	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Records writes a flat record list in the requested format. When prefix is
// non-empty the output goes to <prefix>_<name>.<ext> instead of stdout.
func (p *Printer) Records(records []map[string]any, format Format, prefix, name string) error {
	w := p.stdout
	if prefix != "" {
		ext := "json"
		if format == FormatCSV {
			ext = "csv"
		}
		path := fmt.Sprintf("%s_%s.%s", prefix, name, ext)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
		p.Info("writing %d %s records to %s", len(records), name, path)
	}

	if format == FormatCSV {
		return writeCSV(w, records)
	}
	return p.writeJSON(w, records)
}

// writeCSV flattens loosely-typed records onto the union of their keys.
// Nested values are embedded as JSON.
func writeCSV(w io.Writer, records []map[string]any) error {
	keySet := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	if err := cw.Write(keys); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	row := make([]string, len(keys))
	for _, rec := range records {
		for i, k := range keys {
			row[i] = cellString(rec[k])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; keep integers undecorated.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// Error writes an error message to stderr.
func (p *Printer) Error(format string, args ...any) {
	if p.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(p.stderr, "%s %s\n", color.RedString("mintgrab:"), msg)
}

// Warn writes a warning message to stderr.
func (p *Printer) Warn(format string, args ...any) {
	if p.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(p.stderr, "%s %s\n", color.YellowString("mintgrab:"), msg)
}

// Info writes an informational message to stderr.
func (p *Printer) Info(format string, args ...any) {
	if p.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(p.stderr, "%s %s\n", color.CyanString("mintgrab:"), msg)
}

func (p *Printer) effectiveMode() Mode {
	if p.mode != ModeAuto {
		return p.mode
	}
	if f, ok := p.stdout.(*os.File); ok && isTerminal(f) {
		return ModePretty
	}
	return ModeCompact
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ModeFromFlags converts CLI flag values to a Mode.
// Priority: compact > pretty > auto.
func ModeFromFlags(pretty, compact bool) Mode {
	switch {
	case compact:
		return ModeCompact
	case pretty:
		return ModePretty
	default:
		return ModeAuto
	}
}
