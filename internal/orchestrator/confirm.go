package orchestrator

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptConfirmer implements xtaf.Confirmer by asking on a
// reader/writer pair, honoring the CLI's batch flags: -y answers
// every question yes, -n answers every question no, -a defers to
// AutoAnswer (used by non-interactive automation).
type PromptConfirmer struct {
	In         *bufio.Reader
	Out        io.Writer
	All        bool // -y
	None       bool // -n
	AutoAnswer bool // -a: answer with the "safe" default, no prompt
	changed    *bool
}

// NewPromptConfirmer wires changed so every "yes" answer flips the
// orchestrator's aggregate "changes made" flag (spec §7).
func NewPromptConfirmer(in io.Reader, out io.Writer, all, none, auto bool, changed *bool) *PromptConfirmer {
	return &PromptConfirmer{
		In:         bufio.NewReader(in),
		Out:        out,
		All:        all,
		None:       none,
		AutoAnswer: auto,
		changed:    changed,
	}
}

// Confirm asks question and returns the caller's answer.
func (p *PromptConfirmer) Confirm(question string) bool {
	answer := p.decide(question)
	if answer && p.changed != nil {
		*p.changed = true
	}
	return answer
}

func (p *PromptConfirmer) decide(question string) bool {
	switch {
	case p.All:
		return true
	case p.None:
		return false
	case p.AutoAnswer:
		return true
	}
	fmt.Fprintf(p.Out, "%s [y/N] ", question)
	line, err := p.In.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
