package xtaf

// OverlayStatus is the shadow status of one overlay cluster cell.
type OverlayStatus int

const (
	StatusDisk OverlayStatus = iota
	StatusDeleted
	StatusModified
	StatusMarked
)

type overlayCell struct {
	next   uint32
	owner  *Entry
	status OverlayStatus
}

// OverlayFAT is the in-memory FAT overlay used by check/undelete: a
// shadow status per cluster, an owner-entry pointer, and the set of
// lost chains (spec §4.5).
type OverlayFAT struct {
	*DiskFAT

	dellost bool // when true, reads with no overlay cell fall back to disk

	memchain map[uint32]*overlayCell
	lost     []AreaVector
}

// NewOverlayFAT wraps a DiskFAT with the overlay state used during
// fsck and unrm passes. dellost controls what Read returns for a
// cluster with no overlay cell yet: true falls through to the on-disk
// value (so entries not yet visited by a Mark pass still parse as
// live), false hides it as FREE (the --nolost view, spec §4.5).
func NewOverlayFAT(disk *DiskFAT, dellost bool) *OverlayFAT {
	return &OverlayFAT{
		DiskFAT:  disk,
		dellost:  dellost,
		memchain: make(map[uint32]*overlayCell),
	}
}

// Read overrides DiskFAT.Read: an overlay hit returns its next
// pointer; otherwise fall back to disk when dellost, else FREE
// (erasing lost chains from view, so recovery scans see them as
// available).
func (o *OverlayFAT) Read(c uint32) (uint32, error) {
	if cell, ok := o.memchain[c]; ok {
		return cell.next, nil
	}
	if o.dellost {
		return o.DiskFAT.Read(c)
	}
	return ClusterFree, nil
}

// Change inserts or updates the overlay cell for c.
func (o *OverlayFAT) Change(c uint32, e *Entry, next uint32, status OverlayStatus) {
	o.memchain[c] = &overlayCell{next: next, owner: e, status: status}
}

// MarkChain traverses the chain from start and labels every link with
// (owner=e, status=marked). dellost is temporarily forced true so the
// underlying reads see on-disk values while walking.
func (o *OverlayFAT) MarkChain(start uint32, e *Entry) error {
	saved := o.dellost
	o.dellost = true
	defer func() { o.dellost = saved }()

	if start == 0 {
		return nil
	}
	_, err := o.DiskFAT.GetAreas(start, func(cur, next uint32) {
		o.Change(cur, e, next, StatusMarked)
	})
	return err
}

// Status returns the overlay status of c, defaulting to disk when
// unmapped.
func (o *OverlayFAT) Status(c uint32) OverlayStatus {
	if cell, ok := o.memchain[c]; ok {
		return cell.status
	}
	return StatusDisk
}

// GetEntry returns the owning entry of c, or nil when unmapped.
func (o *OverlayFAT) GetEntry(c uint32) *Entry {
	if cell, ok := o.memchain[c]; ok {
		return cell.owner
	}
	return nil
}

// Lost returns the current lost-chain set.
func (o *OverlayFAT) Lost() []AreaVector { return o.lost }

// FatLost rebuilds the lost set: scans the on-disk FAT, and for every
// cluster whose on-disk value is non-FREE, whose overlay status is
// still disk, and that is not already covered by a previously found
// lost chain, computes its area vector and adds it, removing any
// previously added subset.
func (o *OverlayFAT) FatLost() error {
	geom := o.Geometry()
	covered := make(map[uint32]bool)
	for _, av := range o.lost {
		for _, a := range av.Areas() {
			for c := a.StartCluster; c <= a.StopCluster; c++ {
				covered[c] = true
			}
		}
	}

	var newLost []AreaVector
	for c := geom.RootCluster; c <= geom.ClusFat; c++ {
		if covered[c] {
			continue
		}
		v, err := o.DiskFAT.Read(c)
		if err != nil || v == ClusterFree {
			continue
		}
		if o.Status(c) != StatusDisk {
			continue
		}
		av, err := o.DiskFAT.GetAreas(c, nil)
		if err != nil {
			continue
		}
		for _, a := range av.Areas() {
			for cc := a.StartCluster; cc <= a.StopCluster; cc++ {
				covered[cc] = true
			}
		}
		newLost = append(newLost, av)
	}
	o.lost = newLost
	return nil
}

// FatCheck runs the fsck/unrm reconciliation pass for modified
// overlay cells and lost chains (spec §4.5).
func (o *OverlayFAT) FatCheck(mode Mode, confirm Confirmer, recoverLost func(AreaVector) error) error {
	for c, cell := range o.memchain {
		if cell.status != StatusModified {
			continue
		}
		if mode == ModeFsck {
			if confirm == nil || confirm.Confirm("reconcile on-disk FAT cell with in-memory overlay?") {
				if err := o.DiskFAT.Write(c, cell.next); err != nil {
					return err
				}
				delete(o.memchain, c)
			}
		}
	}

	remaining := o.lost[:0:0]
	for _, av := range o.lost {
		switch mode {
		case ModeFsck:
			if confirm != nil && confirm.Confirm("free lost chain?") {
				first, ok := av.At(0)
				if ok {
					if err := o.DiskFAT.Free(first); err != nil {
						return err
					}
				}
				continue
			}
		case ModeUnrm:
			if recoverLost != nil {
				if confirm == nil || confirm.Confirm("recover lost chain into lost+found?") {
					if err := recoverLost(av); err != nil {
						return err
					}
					continue
				}
			}
		}
		remaining = append(remaining, av)
	}
	o.lost = remaining
	return nil
}

var _ FAT = (*OverlayFAT)(nil)
