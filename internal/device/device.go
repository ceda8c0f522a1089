// Package device implements the byte-addressable random read/write
// surface (spec §4.1) that everything else in this module is built
// over: a file or block device opened through an afero.Fs, guarded by
// a single mutex and, where the platform supports it, an advisory
// whole-file range lock.
package device

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatxtool/fatx/internal/xtaf"
	"github.com/spf13/afero"
)

// Device is a byte-addressable random read/write surface over a
// file/block device with advisory range locking (spec §4.1).
type Device struct {
	mu       sync.Mutex
	fs       afero.Fs
	path     string
	file     afero.File
	readOnly bool
	testMode bool
	modified bool
	size     int64
	unlock   func() error
}

// Open opens path for read, or read+write when readOnly is false. In
// testMode, Write always reports success without touching storage and
// never sets Modified (spec §4.1).
func Open(fs afero.Fs, path string, readOnly bool, testMode bool) (*Device, error) {
	var f afero.File
	var err error
	if readOnly {
		f, err = fs.Open(path)
	} else {
		f, err = fs.OpenFile(path, os.O_RDWR, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("device: open %q: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("device: stat %q: %w", path, err)
	}

	d := &Device{
		fs:       fs,
		path:     path,
		file:     f,
		readOnly: readOnly,
		testMode: testMode,
		size:     fi.Size(),
	}

	unlock, err := lockRange(f, readOnly)
	if err == nil {
		d.unlock = unlock
	}
	return d, nil
}

// Close releases the advisory lock (if held) and closes the file.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unlock != nil {
		d.unlock()
	}
	return d.file.Close()
}

// Size returns the device's byte size as observed at open time.
func (d *Device) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Modified reports whether any write has actually reached storage.
func (d *Device) Modified() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modified
}

// ReadAt reads size bytes at offset. Out-of-bounds and stream errors
// are reported, not retried (spec §4.1).
func (d *Device) ReadAt(offset uint64, size int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if int64(offset) >= d.size {
		return nil, &xtaf.DeviceUnreachableError{Offset: offset}
	}
	buf := make([]byte, size)
	n, err := d.file.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, &xtaf.DeviceUnreachableError{Offset: offset}
	}
	if n < size {
		return nil, &xtaf.DeviceShortError{Offset: offset, Size: size}
	}
	return buf, nil
}

// WriteAt writes data at offset. In test/read-only mode it reports
// success without touching storage and does not set Modified.
func (d *Device) WriteAt(offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.testMode {
		return nil
	}
	if d.readOnly {
		return &xtaf.ReadOnlyError{Offset: offset}
	}
	n, err := d.file.WriteAt(data, int64(offset))
	if err != nil {
		return &xtaf.DeviceUnreachableError{Offset: offset}
	}
	if n < len(data) {
		return &xtaf.DeviceShortError{Offset: offset, Size: len(data)}
	}
	d.modified = true
	if end := int64(offset) + int64(len(data)); end > d.size {
		d.size = end
	}
	return nil
}

var _ xtaf.Blockdev = (*Device)(nil)
