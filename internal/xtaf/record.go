package xtaf

const RecordSize = 64

// MaxNameLen is the longest name a 64-byte record can hold.
const MaxNameLen = 42

const (
	maxNameLen  = MaxNameLen
	endMarker0  = 0x00
	endMarker1  = 0xFF
	deletedByte = 0xE5
)

// Attribute bits, spec §3.
const (
	AttrReadOnly = 1 << iota
	AttrHidden
	AttrSystem
	AttrVolumeLabel
	AttrDirectory
	AttrArchive
	AttrDevice
	attrReserved
)

// Status is the entry's classification at directory-parse time,
// spec §3 "Status semantics".
type Status int

const (
	StatusValid Status = iota
	StatusDelWData
	StatusDelNoData
	StatusLost
	StatusEnd
	StatusInvalid
)

// Record is the decoded contents of one 64-byte directory record.
type Record struct {
	NameLen    byte
	Attributes byte
	Name       [maxNameLen]byte
	Cluster    uint32
	Size       uint32
	Created    uint32
	Accessed   uint32
	Updated    uint32
}

// DecodeRecord parses a 64-byte on-disk directory record.
func DecodeRecord(buf []byte) Record {
	var r Record
	r.NameLen = buf[0]
	r.Attributes = buf[1]
	copy(r.Name[:], buf[2:44])
	r.Cluster = LE32(buf[44:48])
	r.Size = LE32(buf[48:52])
	r.Created = LE32(buf[52:56])
	r.Accessed = LE32(buf[56:60])
	r.Updated = LE32(buf[60:64])
	return r
}

// Encode serializes the record back into a 64-byte buffer.
func (r Record) Encode() []byte {
	buf := make([]byte, RecordSize)
	buf[0] = r.NameLen
	buf[1] = r.Attributes
	copy(buf[2:44], r.Name[:])
	PutLE32(buf[44:48], r.Cluster)
	PutLE32(buf[48:52], r.Size)
	PutLE32(buf[52:56], r.Created)
	PutLE32(buf[56:60], r.Accessed)
	PutLE32(buf[60:64], r.Updated)
	return buf
}

// IsDirectory reports the directory attribute bit.
func (r Record) IsDirectory() bool { return r.Attributes&AttrDirectory != 0 }

// IsEnd reports whether NameLen marks end-of-directory.
func (r Record) IsEnd() bool {
	return r.NameLen == endMarker0 || r.NameLen == endMarker1
}

// IsDeleted reports the 0xE5 deleted marker in NameLen.
func (r Record) IsDeleted() bool { return r.NameLen == deletedByte }

// realNameLen recovers the original name length of a deleted record:
// deletion overwrites only the NameLen byte, leaving the zero-padded
// name bytes from the original write untouched, so the true length is
// the offset of the first zero byte.
func (r Record) realNameLen() byte {
	for i := 0; i < maxNameLen; i++ {
		if r.Name[i] == 0 {
			return byte(i)
		}
	}
	return maxNameLen
}

// NameString returns the printable name, truncated to NameLen (capped
// at 42), with EOD/0xFF bytes replaced by NUL and non-printables by
// '~' as spec §4.6 "sanitizes the name" requires.
func (r Record) NameString() string {
	n := int(r.NameLen)
	if n > maxNameLen {
		n = maxNameLen
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b := r.Name[i]
		switch {
		case b == endMarker0 || b == endMarker1:
			out[i] = 0
		case b < 0x20 || b > 0x7E:
			out[i] = '~'
		default:
			out[i] = b
		}
	}
	return string(out)
}

func printableName(name [maxNameLen]byte, n int) bool {
	for i := 0; i < n; i++ {
		b := name[i]
		if b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}

// ClassifyStatus applies the status rules of spec §3 to a decoded
// record given the resident geometry, a FAT reader, and whether we're
// running in undelete (recovery) mode with a callback that reports
// whether a more recent delwdata claim exists for cluster c.
func ClassifyStatus(r Record, geom Geometry, fatRead func(uint32) (uint32, error), recoveryMode bool, newerClaim func(cluster uint32, updated uint32) bool) Status {
	if r.IsEnd() {
		return StatusEnd
	}

	if r.Cluster != 0 && !geom.InRange(r.Cluster) {
		return StatusInvalid
	}
	n := int(r.NameLen)
	if !r.IsDeleted() {
		if n == 0 || n > maxNameLen {
			return StatusInvalid
		}
		if !printableName(r.Name, minInt(3, n)) {
			return StatusInvalid
		}
		for i := 0; i < n; i++ {
			if r.Name[i] == '/' {
				return StatusInvalid
			}
		}
	}

	if !r.IsDeleted() {
		if r.Size == 0 && r.Cluster == 0 {
			return StatusValid
		}
		if r.Cluster != 0 {
			v, err := fatRead(r.Cluster)
			if err == nil && v != ClusterFree {
				return StatusValid
			}
		}
	}

	// deleted: either explicit 0xE5 marker, or a name that failed the
	// "valid" tests above but still describes a plausible deleted slot.
	if r.IsDirectory() {
		return StatusDelNoData
	}
	if r.Cluster == 0 {
		return StatusDelWData
	}
	v, err := fatRead(r.Cluster)
	if err != nil {
		return StatusDelNoData
	}
	if v == ClusterFree {
		if recoveryMode && newerClaim != nil && newerClaim(r.Cluster, r.Updated) {
			return StatusDelNoData
		}
		return StatusDelWData
	}
	return StatusDelNoData
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
