package archive

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated is reported when a read runs past the end of the payload.
var ErrTruncated = errors.New("archive: truncated data")

// maxStringLen guards length prefixes read from untrusted blobs.
const maxStringLen = 1 << 20

// encoder builds a little-endian payload.
type encoder struct {
	buf []byte
}

func newEncoder() *encoder {
	return &encoder{buf: make([]byte, 0, 256)}
}

func (e *encoder) writeU8(v byte) {
	e.buf = append(e.buf, v)
}

func (e *encoder) writeU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) writeI32(v int32) {
	e.writeU32(uint32(v))
}

func (e *encoder) writeF64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	e.buf = append(e.buf, b[:]...)
}

// writeString writes a u32 byte length followed by the raw UTF-8 bytes.
func (e *encoder) writeString(s string) {
	e.writeU32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) writeBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// decoder reads fields written by encoder. The first short read sets err and
// every later read returns zero values.
type decoder struct {
	data []byte
	off  int
	err  error
}

func newDecoder(data []byte) *decoder {
	return &decoder{data: data}
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || d.off+n > len(d.data) {
		d.err = ErrTruncated
		return false
	}
	return true
}

func (d *decoder) readU8() byte {
	if !d.need(1) {
		return 0
	}
	v := d.data[d.off]
	d.off++
	return v
}

func (d *decoder) readU32() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v
}

func (d *decoder) readI32() int32 {
	return int32(d.readU32())
}

func (d *decoder) readF64() float64 {
	if !d.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return math.Float64frombits(v)
}

func (d *decoder) readString() string {
	n := d.readU32()
	if d.err != nil {
		return ""
	}
	if n > maxStringLen {
		d.err = ErrTruncated
		return ""
	}
	if !d.need(int(n)) {
		return ""
	}
	s := string(d.data[d.off : d.off+int(n)])
	d.off += int(n)
	return s
}

func (d *decoder) readBytes(n int) []byte {
	if !d.need(n) {
		return nil
	}
	b := make([]byte, n)
	copy(b, d.data[d.off:d.off+n])
	d.off += n
	return b
}

func (d *decoder) remaining() int {
	return len(d.data) - d.off
}
