// Package output formats cradlectl results for the terminal.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// ColorMode selects when colors are used.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses the --color flag.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors applies NO_COLOR and TERM=dumb in auto mode, then falls
// back to the output.colors setting.
func ResolveColors(mode ColorMode, configColors bool) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return configColors
}

// Printer writes results to out and diagnostics to err.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer.
func NewPrinter(out, errOut io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: errOut, useColors: useColors}
}

// Out is the result stream.
func (p *Printer) Out() io.Writer { return p.out }

// level is a message class with its plain and colored markers.
type level struct {
	plain string
	glyph string
	attr  color.Attribute
	diag  bool
}

var (
	levelOK    = level{plain: "[OK]", glyph: "✓", attr: color.FgGreen}
	levelWarn  = level{plain: "[WARN]", glyph: "⚠", attr: color.FgYellow, diag: true}
	levelError = level{plain: "[ERROR]", glyph: "✗", attr: color.FgRed, diag: true}
)

func (p *Printer) emit(l level, format string, args ...any) {
	w := p.out
	if l.diag {
		w = p.err
	}
	msg := fmt.Sprintf(format, args...)
	if !p.useColors {
		fmt.Fprintln(w, l.plain, msg)
		return
	}
	color.New(l.attr).Fprintln(w, l.glyph, msg)
}

// Success prints a confirmation line on the result stream.
func (p *Printer) Success(format string, args ...any) { p.emit(levelOK, format, args...) }

// Warning and Error go to the diagnostic stream.
func (p *Printer) Warning(format string, args ...any) { p.emit(levelWarn, format, args...) }

func (p *Printer) Error(format string, args ...any) { p.emit(levelError, format, args...) }

// Print prints a plain line.
func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Field prints an aligned "label: value" line.
func (p *Printer) Field(label, value string) {
	if value == "" {
		value = p.Dim("(none)")
	}
	fmt.Fprintf(p.out, "%-14s %s\n", p.Bold(label+":"), value)
}

// Role colors a role name. The empty role prints as "none".
func (p *Printer) Role(role string) string {
	if role == "" {
		return p.Dim("none")
	}
	switch role {
	case "institutional":
		return p.style(role, color.FgBlue)
	case "retail":
		return p.style(role, color.FgMagenta)
	}
	return p.style(role, color.FgYellow)
}

func (p *Printer) Bold(text string) string { return p.style(text, color.Bold) }

func (p *Printer) Dim(text string) string { return p.style(text, color.Faint) }

func (p *Printer) style(text string, attrs ...color.Attribute) string {
	if !p.useColors {
		return text
	}
	return color.New(attrs...).Sprint(text)
}
