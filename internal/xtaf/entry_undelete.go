package xtaf

// AnalysePass selects which of findfile/finddel/tryrecov runs at each
// node during a recursive walk (spec §4.6 "analyse").
type AnalysePass int

const (
	PassFindFile AnalysePass = iota
	PassFindDel
	PassTryRecov
)

func (e *Entry) overlay() *OverlayFAT {
	o, _ := e.ctx.Fat.(*OverlayFAT)
	return o
}

// Mark labels the chain in the overlay via MarkChain during the fsck
// findfile pass. For files, a chain-length/size mismatch is offered
// as a repair.
func (e *Entry) Mark() error {
	o := e.overlay()
	if o == nil || e.rec.Cluster == 0 {
		return nil
	}
	if err := o.MarkChain(e.rec.Cluster, e); err != nil {
		return err
	}
	if !e.IsDir() {
		av, err := o.DiskFAT.GetAreas(e.rec.Cluster, nil)
		if err != nil {
			return err
		}
		want := e.ctx.Geom.ClustersFor(e.Size())
		if av.NumClusters() != want {
			if e.offer("correct size to match chain length?") {
				e.rec.Size = av.NumClusters() * e.ctx.Geom.ClusterSize
				e.persist()
			}
		}
	}
	return nil
}

// Guess reconstructs a delwdata file's chain, per spec §4.6.
func (e *Entry) Guess() error {
	o := e.overlay()
	if o == nil || e.status != StatusDelWData || e.IsDir() {
		return nil
	}

	want := e.ctx.Geom.ClustersFor(e.Size())
	if want == 0 {
		return nil
	}

	var displaced []*Entry
	q := e.rec.Cluster
	var prev uint32
	havePrev := false
	got := uint32(0)

	for got < want {
		v, _ := o.DiskFAT.Read(q)
		status := o.Status(q)
		owner := o.GetEntry(q)

		switch {
		case v == ClusterFree && status == StatusDisk:
			o.Change(q, e, ClusterEOC, StatusDeleted)
			if havePrev {
				o.Change(prev, e, q, StatusDeleted)
			}
			prev, havePrev = q, true
			got++
			q++

		case status == StatusDeleted && owner != nil && !owner.IsDir() && e.ctx.Opts.DelDate && owner.Updated().Seq() < e.Updated().Seq():
			displaced = append(displaced, owner)
			o.Change(q, e, ClusterEOC, StatusDeleted)
			if havePrev {
				o.Change(prev, e, q, StatusDeleted)
			}
			prev, havePrev = q, true
			got++
			q++

		default:
			spliced, remainder := spliceLostChain(o, q, want-got)
			if spliced {
				if havePrev {
					o.Change(prev, e, q, StatusDeleted)
				}
				got = want - remainder
				break
			}
			if q == e.rec.Cluster {
				e.status = StatusDelNoData
				return nil
			}
			q++
		}
	}

	e.status = StatusValid
	e.recoverPending = true
	for _, d := range displaced {
		if err := d.Guess(); err != nil {
			return err
		}
	}
	return nil
}

// spliceLostChain checks whether q heads a lost chain of length <=
// remaining; if so it splices the whole chain in and removes it from
// the overlay's lost set, returning the number of clusters still
// needed afterward.
func spliceLostChain(o *OverlayFAT, q uint32, remaining uint32) (bool, uint32) {
	for i, av := range o.lost {
		first, ok := av.At(0)
		if !ok || first != q || av.NumClusters() > remaining {
			continue
		}
		o.lost = append(o.lost[:i], o.lost[i+1:]...)
		return true, remaining - av.NumClusters()
	}
	return false, remaining
}

// Recover commits an undeleted entry, either dumping it to the host
// filesystem (--local) or writing it back into the volume.
func (e *Entry) Recover(localDump func(e *Entry) error) error {
	if e.ctx.Opts.Local {
		if e.IsDir() {
			return nil
		}
		return localDump(e)
	}

	o := e.overlay()
	if e.rec.IsDeleted() {
		e.rec.NameLen = e.rec.realNameLen()
	}
	e.status = StatusValid
	e.recoverPending = false
	if err := e.persistWithEndFixup(); err != nil {
		return err
	}
	if o != nil && e.rec.Cluster != 0 {
		c := e.rec.Cluster
		for {
			next, err := o.Read(c)
			if err != nil {
				break
			}
			if err := o.DiskFAT.Write(c, next); err != nil {
				return err
			}
			o.Change(c, e, next, StatusModified)
			if next == ClusterEOC || next == ClusterFree || !e.ctx.Geom.InRange(next) {
				break
			}
			c = next
		}
	}
	return nil
}

// persistWithEndFixup writes e's record, converting a preceding
// end-of-directory marker to a deleted marker when it sits between
// the start of e's cluster and e's own slot, so the newly-valid
// record stays reachable during opendir (spec §4.6 "recover").
func (e *Entry) persistWithEndFixup() error {
	geom := e.ctx.Geom
	clusStart := (e.loc - geom.DataOffset) / uint64(geom.ClusterSize) * uint64(geom.ClusterSize) + geom.DataOffset
	for off := clusStart; off < e.loc; off += RecordSize {
		b, err := e.ctx.Dev.ReadAt(off, 1)
		if err != nil {
			continue
		}
		if b[0] == endMarker0 || b[0] == endMarker1 {
			e.ctx.Dev.WriteAt(off, []byte{deletedByte})
		}
	}
	return e.persist()
}

// Analyse recursively walks the tree pre-order, running pass at each
// node, per spec §4.6.
func (e *Entry) Analyse(pass AnalysePass, localDump func(e *Entry) error) (bool, error) {
	recovered := false
	switch pass {
	case PassFindFile:
		if e.status == StatusValid {
			if err := e.Mark(); err != nil {
				return false, err
			}
		}
	case PassFindDel:
		if e.status == StatusDelWData {
			if err := e.Guess(); err != nil {
				return false, err
			}
		}
	case PassTryRecov:
		if e.recoverPending {
			if err := e.Recover(localDump); err != nil {
				return false, err
			}
			recovered = true
		}
	}

	if e.IsDir() {
		for _, c := range e.Children() {
			childRecovered, err := c.Analyse(pass, localDump)
			if err != nil {
				return recovered, err
			}
			recovered = recovered || childRecovered
		}
		if pass == PassTryRecov && recovered && e.status != StatusValid {
			if err := e.Recover(localDump); err == nil {
				recovered = true
			}
		}
	}
	return recovered, nil
}
