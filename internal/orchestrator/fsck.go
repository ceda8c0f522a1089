package orchestrator

import (
	"github.com/fatxtool/fatx/internal/xtaf"
)

// Result carries the two aggregate booleans spec §7 defines and the
// exit code computed from them.
type Result struct {
	ChangesMade  bool
	ErrorsRemain bool
	ExitCode     int
}

func computeExit(changed, remain bool) int {
	code := ExitOK
	if changed {
		code |= ExitCorrected
	}
	if remain {
		code |= ExitRemaining
	}
	return code
}

// Fsck runs the check-and-repair pipeline: analyse(findfile), then
// (unless --nofat) fatlost and fatcheck, per spec §4.8. confirm must
// be the same Confirmer passed to Setup (a *PromptConfirmer wired
// with the run's shared "changes made" flag) so every offer answered
// yes, wherever in the tree it happens, contributes to changed.
func Fsck(ctx *xtaf.Context, confirm xtaf.Confirmer, changed *bool) (Result, error) {
	if _, err := ctx.Root.Analyse(xtaf.PassFindFile, nil); err != nil {
		return Result{ExitCode: ExitInternal}, err
	}

	o, isOverlay := ctx.Fat.(*xtaf.OverlayFAT)
	var remain bool
	if !ctx.Opts.NoFAT && isOverlay {
		if err := o.FatLost(); err != nil {
			return Result{ExitCode: ExitInternal}, err
		}
		if err := o.FatCheck(xtaf.ModeFsck, confirm, nil); err != nil {
			return Result{ExitCode: ExitInternal}, err
		}
		remain = len(o.Lost()) > 0
	}

	res := Result{ChangesMade: *changed, ErrorsRemain: remain}
	res.ExitCode = computeExit(*changed, remain)
	return res, nil
}
