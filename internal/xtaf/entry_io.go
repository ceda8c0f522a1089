package xtaf

import (
	"fmt"
	"time"
)

// nowDate returns the current time packed as a Date, used to stamp
// access/update timestamps (spec §9 wants full calendar precision
// carried in memory; only the encode step truncates to 2s/1980-epoch).
func nowDate() Date {
	t := time.Now()
	return Date{
		Year:   uint32(t.Year()),
		Month:  uint32(t.Month()),
		Day:    uint32(t.Day()),
		Hour:   uint32(t.Hour()),
		Minute: uint32(t.Minute()),
		Second: uint32(t.Second()),
	}
}

// Open acquires authw exclusive when writing, shared when reading,
// per spec §5.
func (e *Entry) Open(write bool) error {
	if write {
		e.authw.Lock()
	} else {
		e.authw.RLock()
	}
	e.cptacc++
	e.writeOpened = write
	return nil
}

// Close releases authw and flushes any pending buffer.
func (e *Entry) Close() error {
	err := e.Flush()
	e.cptacc--
	if e.writeOpened {
		e.authw.Unlock()
	} else {
		e.authw.RUnlock()
	}
	return err
}

// ensureAreas lazily populates e.areas.
func (e *Entry) ensureAreas() error {
	if e.areas != nil {
		return nil
	}
	if e.rec.Cluster == 0 {
		empty := NewAreaVector(e.ctx.Geom, nil)
		e.areas = &empty
		return nil
	}
	av, err := e.ctx.Fat.GetAreas(e.rec.Cluster, nil)
	if err != nil {
		return err
	}
	e.areas = &av
	return nil
}

// Resize changes the file's data extent to n bytes, per spec §4.6.
func (e *Entry) Resize(n uint64) error {
	if e.IsDir() {
		return fmt.Errorf("resize: %q is a directory", e.Name())
	}
	if n == e.Size() {
		return nil
	}
	if n == 0 {
		if e.rec.Cluster != 0 {
			if err := e.ctx.Fat.Free(e.rec.Cluster); err != nil {
				return err
			}
		}
		e.rec.Cluster = 0
		e.rec.Size = 0
		empty := NewAreaVector(e.ctx.Geom, nil)
		e.areas = &empty
		return e.persist()
	}
	if e.Size() == 0 {
		nclus := e.ctx.Geom.ClustersFor(n)
		av, err := e.ctx.Fat.Alloc(nclus, 0)
		if err != nil {
			return err
		}
		first, _ := av.At(0)
		e.rec.Cluster = first
		e.areas = &av
		e.rec.Size = uint32(n)
		return e.persist()
	}

	if err := e.ensureAreas(); err != nil {
		return err
	}
	nclus := e.ctx.Geom.ClustersFor(n)
	newAv, err := e.ctx.Fat.Resize(*e.areas, nclus)
	if err != nil {
		return err
	}
	e.areas = &newAv
	sub := newAv.Sub(0, n)
	e.areas = &sub
	e.rec.Size = uint32(n)
	return e.persist()
}

// Data reads or writes length bytes at offset. Writes may grow the
// file via Resize and always refresh the update timestamp.
func (e *Entry) Data(buf []byte, isRead bool, offset uint64, length int) (int, error) {
	if !isRead {
		if offset+uint64(length) > e.Size() {
			if err := e.Resize(offset + uint64(length)); err != nil {
				return 0, err
			}
		}
	}
	if err := e.ensureAreas(); err != nil {
		return 0, err
	}
	sub := e.areas.Sub(offset, uint64(length))

	var done int
	for _, a := range sub.Areas() {
		n := int(a.ByteSize)
		if isRead {
			b, err := e.ctx.Dev.ReadAt(a.DevicePointer, n)
			if err != nil {
				return done, err
			}
			copy(buf[done:done+n], b)
		} else {
			if err := e.ctx.Dev.WriteAt(a.DevicePointer, buf[done:done+n]); err != nil {
				return done, err
			}
		}
		done += n
	}

	if !isRead {
		e.touchUpdated(nowDate())
		if err := e.persist(); err != nil {
			return done, err
		}
	}
	return done, nil
}

// BufRead serves a read through the entry's scoped I/O buffer.
func (e *Entry) BufRead(dst []byte, offset uint64) error {
	e.authb.Lock()
	defer e.authb.Unlock()
	if e.entbuf == nil {
		e.entbuf = &entryBuffer{}
	}
	return e.entbuf.bufRead(dst, offset,
		func(buf []byte, at uint64) error {
			n, err := e.Data(buf, true, at, len(buf))
			if err != nil && n == 0 {
				return err
			}
			for i := n; i < len(buf); i++ {
				buf[i] = 0
			}
			return nil
		},
		func() error { return e.entbuf.flush(func(b []byte, at uint64) error {
			_, err := e.Data(b, false, at, len(b))
			return err
		}) },
	)
}

// BufWrite absorbs a write through the entry's scoped I/O buffer.
func (e *Entry) BufWrite(src []byte, offset uint64) error {
	e.authb.Lock()
	defer e.authb.Unlock()
	if e.entbuf == nil {
		e.entbuf = &entryBuffer{}
	}
	return e.entbuf.bufWrite(src, offset, func() error {
		return e.entbuf.flush(func(b []byte, at uint64) error {
			_, err := e.Data(b, false, at, len(b))
			return err
		})
	})
}

// Flush persists any pending buffered write.
func (e *Entry) Flush() error {
	e.authb.Lock()
	defer e.authb.Unlock()
	if e.entbuf == nil {
		return nil
	}
	return e.entbuf.flush(func(b []byte, at uint64) error {
		_, err := e.Data(b, false, at, len(b))
		return err
	})
}
