package orchestrator

import (
	"github.com/fatxtool/fatx/internal/xtaf"
)

// ReadLabel returns the current volume label, or "" when no name.txt
// file exists.
func ReadLabel(ctx *xtaf.Context) (string, error) {
	e := ctx.Root.Find(xtaf.LabelFileName)
	if e == nil {
		return "", nil
	}
	if err := e.Open(false); err != nil {
		return "", err
	}
	defer e.Close()
	buf := make([]byte, e.Size())
	if err := e.BufRead(buf, 0); err != nil {
		return "", err
	}
	return xtaf.DecodeLabel(buf)
}

// WriteLabel finds or creates name.txt, resizes it to the encoded
// label, and writes the bytes, per spec §4.8's label pipeline.
func WriteLabel(ctx *xtaf.Context, label string) error {
	encoded, err := xtaf.EncodeLabel(label)
	if err != nil {
		return err
	}

	e := ctx.Root.Find(xtaf.LabelFileName)
	if e == nil {
		e, err = xtaf.NewEntry(ctx, ctx.Root, xtaf.LabelFileName, false, uint64(len(encoded)))
		if err != nil {
			return err
		}
		if err := e.SetAttributes(xtaf.AttrVolumeLabel | xtaf.AttrHidden | xtaf.AttrSystem); err != nil {
			return err
		}
		if err := ctx.Root.AddToDir(e); err != nil {
			return err
		}
	}

	if err := e.Open(true); err != nil {
		return err
	}
	defer e.Close()
	if err := e.Resize(uint64(len(encoded))); err != nil {
		return err
	}
	return e.BufWrite(encoded, 0)
}
