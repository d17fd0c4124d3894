package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"clipbeat/internal/workflow"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressPrinter renders the observer event stream. On a terminal it keeps
// one updating line per stage; otherwise it emits a line per event.
type progressPrinter struct {
	out      io.Writer
	tty      bool
	colorize bool
	active   bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	tty := shouldColorize(out)
	return &progressPrinter{out: out, tty: tty, colorize: tty}
}

func (p *progressPrinter) Handle(evt workflow.Event) {
	switch evt.Stage {
	case workflow.EventStageDone:
		p.finishLine()
		p.println(ansiGreen, fmt.Sprintf("done: %s", evt.Message))
	case workflow.EventStageError:
		p.finishLine()
		p.println(ansiRed, fmt.Sprintf("failed: %s", evt.Message))
	case workflow.EventStageCancelled:
		p.finishLine()
		p.println(ansiYellow, "cancelled")
	default:
		p.stageLine(evt)
	}
}

func (p *progressPrinter) stageLine(evt workflow.Event) {
	line := fmt.Sprintf("[%-8s] %3.0f%% %s", evt.Stage, evt.Percent, evt.Message)
	if p.tty {
		fmt.Fprintf(p.out, "\r%s\x1b[K", line)
		p.active = true
		return
	}
	fmt.Fprintln(p.out, line)
}

func (p *progressPrinter) finishLine() {
	if p.active {
		fmt.Fprintln(p.out)
		p.active = false
	}
}

func (p *progressPrinter) println(color, message string) {
	if p.colorize && color != "" {
		fmt.Fprintln(p.out, color+message+ansiReset)
		return
	}
	fmt.Fprintln(p.out, message)
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}
