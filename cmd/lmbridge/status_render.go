package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	labelWidth = 20
)

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

// statusPrinter accumulates status output, colouring it only for terminals.
type statusPrinter struct {
	lines    []string
	colorize bool
}

func newStatusPrinter(w io.Writer) *statusPrinter {
	return &statusPrinter{colorize: isTerminal(w)}
}

func (p *statusPrinter) section(title string) {
	if len(p.lines) > 0 {
		p.lines = append(p.lines, "")
	}
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	p.lines = append(p.lines, p.paint(statusInfo, heading), p.paint(statusInfo, strings.Repeat("-", len(heading))))
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	text := fmt.Sprintf("  %-*s [%s]", labelWidth, label+":", statusStyles[kind].label)
	if message != "" {
		text += " " + message
	}
	p.lines = append(p.lines, p.paint(kind, text))
}

func (p *statusPrinter) paint(kind statusKind, text string) string {
	if !p.colorize {
		return text
	}
	return statusStyles[kind].color + text + ansiReset
}

func (p *statusPrinter) String() string {
	return strings.Join(p.lines, "\n")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
