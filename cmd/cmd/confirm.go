package cmd

import (
	"os"

	"github.com/fatxtool/fatx/internal/orchestrator"
	"github.com/fatxtool/fatx/internal/xtaf"
)

// newOrchestratorConfirmer wires a PromptConfirmer to stdin/stdout,
// sharing changed with the caller so the run's exit code can reflect
// spec §7's "changes made" bit.
func newOrchestratorConfirmer(all, none, auto bool, changed *bool) xtaf.Confirmer {
	return orchestrator.NewPromptConfirmer(os.Stdin, os.Stdout, all, none, auto, changed)
}
