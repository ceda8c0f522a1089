package xtaf

import (
	"golang.org/x/text/encoding/unicode"
)

// LabelFileName is the hidden file that stores the volume label,
// per spec §3.
const LabelFileName = "name.txt"

// labelBOM is the literal two-byte prefix spec §3 requires before the
// UTF-16LE label bytes. It is not the standard UTF-16LE BOM (FF FE);
// FATX writes it in this fixed byte order regardless of platform.
var labelBOM = [2]byte{0xFE, 0xFF}

var noBOMCodec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeLabel returns labelBOM followed by the UTF-16LE bytes for
// label.
func EncodeLabel(label string) ([]byte, error) {
	enc := noBOMCodec.NewEncoder()
	body, err := enc.Bytes([]byte(label))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 2+len(body))
	out = append(out, labelBOM[0], labelBOM[1])
	out = append(out, body...)
	return out, nil
}

// DecodeLabel strips the labelBOM prefix (when present) and decodes
// the remaining UTF-16LE bytes back into a string.
func DecodeLabel(b []byte) (string, error) {
	if len(b) >= 2 && b[0] == labelBOM[0] && b[1] == labelBOM[1] {
		b = b[2:]
	}
	dec := noBOMCodec.NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
