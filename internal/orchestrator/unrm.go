package orchestrator

import (
	"fmt"

	"github.com/fatxtool/fatx/internal/xtaf"
)

const lostFoundName = "lost+found"

// Unrm runs the undelete pipeline: analyse(findfile), fatlost,
// analyse(finddel), gapcheck (unless --local), analyse(tryrecov),
// then (unless --nofat) fatlost/fatcheck again to sweep any chains
// that remain lost after recovery, per spec §4.8.
func Unrm(ctx *xtaf.Context, confirm xtaf.Confirmer, changed *bool, localDump func(e *xtaf.Entry) error) (Result, error) {
	o, isOverlay := ctx.Fat.(*xtaf.OverlayFAT)
	if !isOverlay {
		return Result{ExitCode: ExitInternal}, fmt.Errorf("unrm: FAT is not an overlay")
	}

	if _, err := ctx.Root.Analyse(xtaf.PassFindFile, nil); err != nil {
		return Result{ExitCode: ExitInternal}, err
	}
	if err := o.FatLost(); err != nil {
		return Result{ExitCode: ExitInternal}, err
	}
	if _, err := ctx.Root.Analyse(xtaf.PassFindDel, nil); err != nil {
		return Result{ExitCode: ExitInternal}, err
	}
	if !ctx.Opts.Local {
		o.GapCheck()
	}
	if _, err := ctx.Root.Analyse(xtaf.PassTryRecov, localDump); err != nil {
		return Result{ExitCode: ExitInternal}, err
	}

	var remain bool
	if !ctx.Opts.NoFAT {
		if err := o.FatLost(); err != nil {
			return Result{ExitCode: ExitInternal}, err
		}
		recoverLost := func(av xtaf.AreaVector) error {
			return recoverLostChain(ctx, av, localDump)
		}
		if err := o.FatCheck(xtaf.ModeUnrm, confirm, recoverLost); err != nil {
			return Result{ExitCode: ExitInternal}, err
		}
		remain = len(o.Lost()) > 0
	}

	res := Result{ChangesMade: *changed, ErrorsRemain: remain}
	res.ExitCode = computeExit(*changed, remain)
	return res, nil
}

// recoverLostChain adopts a lost chain into lost+found (or dumps it
// to the host filesystem when --local), naming it FILEnnn continuing
// the highest existing index, per spec §4.5.
func recoverLostChain(ctx *xtaf.Context, av xtaf.AreaVector, localDump func(e *xtaf.Entry) error) error {
	first, ok := av.At(0)
	if !ok {
		return nil
	}
	size := av.Size()
	name := nextLostFoundName(ctx)

	if ctx.Opts.Local {
		e := xtaf.AdoptEntry(ctx, ctx.Root, name, first, size)
		if localDump == nil {
			return nil
		}
		return localDump(e)
	}

	lf := ctx.Root.Find(lostFoundName)
	if lf == nil {
		var err error
		lf, err = xtaf.NewEntry(ctx, ctx.Root, lostFoundName, true, 0)
		if err != nil {
			return err
		}
		if err := ctx.Root.AddToDir(lf); err != nil {
			return err
		}
	}

	e := xtaf.AdoptEntry(ctx, lf, nextLostFoundNameIn(lf), first, size)
	return lf.AddToDir(e)
}

// nextLostFoundName scans the root for the highest existing FILEnnn
// index (used only for the --local dump path, which has no
// lost+found directory of its own).
func nextLostFoundName(ctx *xtaf.Context) string {
	return nextIndexedName(ctx.Root.Children())
}

func nextLostFoundNameIn(dir *xtaf.Entry) string {
	return nextIndexedName(dir.Children())
}

func nextIndexedName(children []*xtaf.Entry) string {
	highest := -1
	for _, c := range children {
		var idx int
		if n, err := fmt.Sscanf(c.Name(), "FILE%03d", &idx); n == 1 && err == nil && idx > highest {
			highest = idx
		}
	}
	return fmt.Sprintf("FILE%03d", highest+1)
}
