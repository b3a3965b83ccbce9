package archive

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/l1jgo/levelsave/internal/level"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrBadMagic = errors.New("archive: not a level blob")
	ErrChecksum = errors.New("archive: checksum mismatch")
)

var magic = [4]byte{'L', 'V', 'S', 'V'}

// Mode is the direction an archive moves data in.
type Mode uint8

const (
	ModeNone Mode = iota // neither reads nor writes (reference walks, counters)
	ModeSaving
	ModeLoading
)

// Linker maps actor handles to the names persisted in a blob and back.
type Linker interface {
	// ExportName returns the persisted name of ref, or "" for a null or
	// stale handle.
	ExportName(ref level.ActorRef) string
	// ImportRef resolves a persisted name. Unknown names yield the zero ref.
	ImportRef(name string) level.ActorRef
}

// Options tune an archive beyond its direction.
type Options struct {
	// SaveGame marks an in-memory game-state snapshot rather than level data.
	SaveGame bool
	// Cooking marks a pass that writes a finalized, shipped artifact.
	Cooking bool
	// WriteVersions overrides the custom versions stamped by a saving
	// archive; tools use it to produce legacy blobs.
	WriteVersions Versions
}

// Archive is a bidirectional stream: the same Serialize* call writes when
// saving and reads when loading, so one Serialize method covers both.
type Archive struct {
	mode     Mode
	opts     Options
	versions Versions
	linker   Linker
	enc      *encoder
	dec      *decoder
	err      error
}

// NewSaver returns an archive that writes a level blob.
func NewSaver(linker Linker, opts Options) *Archive {
	return &Archive{
		mode:     ModeSaving,
		opts:     opts,
		versions: make(Versions),
		linker:   linker,
		enc:      newEncoder(),
	}
}

// NewLoader parses the blob header and verifies its checksum. The returned
// archive reads the payload.
func NewLoader(blob []byte, linker Linker, opts Options) (*Archive, error) {
	if len(blob) < len(magic)+4+blake2b.Size256 {
		return nil, ErrTruncated
	}
	body, sum := blob[:len(blob)-blake2b.Size256], blob[len(blob)-blake2b.Size256:]
	want := blake2b.Sum256(body)
	if !bytes.Equal(want[:], sum) {
		return nil, ErrChecksum
	}
	if !bytes.Equal(body[:len(magic)], magic[:]) {
		return nil, ErrBadMagic
	}
	dec := newDecoder(body[len(magic):])
	count := dec.readU32()
	if int(count) > dec.remaining()/20 {
		return nil, fmt.Errorf("archive: version count %d: %w", count, ErrTruncated)
	}
	versions := make(Versions, count)
	for i := uint32(0); i < count && dec.err == nil; i++ {
		raw := dec.readBytes(16)
		v := dec.readI32()
		if dec.err != nil {
			break
		}
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("archive: version key %d: %w", i, err)
		}
		versions[id] = int(v)
	}
	if dec.err != nil {
		return nil, fmt.Errorf("archive: read header: %w", dec.err)
	}
	return &Archive{
		mode:     ModeLoading,
		opts:     opts,
		versions: versions,
		linker:   linker,
		dec:      dec,
	}, nil
}

// NewNull returns an archive that is neither loading nor saving.
func NewNull(opts Options) *Archive {
	return &Archive{mode: ModeNone, opts: opts, versions: make(Versions)}
}

func (ar *Archive) Mode() Mode       { return ar.mode }
func (ar *Archive) IsSaving() bool   { return ar.mode == ModeSaving }
func (ar *Archive) IsLoading() bool  { return ar.mode == ModeLoading }
func (ar *Archive) IsSaveGame() bool { return ar.opts.SaveGame }
func (ar *Archive) IsCooking() bool  { return ar.opts.Cooking && ar.mode == ModeSaving }

// Err returns the first read error, if any.
func (ar *Archive) Err() error {
	if ar.err != nil {
		return ar.err
	}
	if ar.dec != nil {
		return ar.dec.err
	}
	return nil
}

// UsingCustomVersion declares that the caller serializes data gated on key.
// Saving archives stamp the current (or overridden) version into the header.
func (ar *Archive) UsingCustomVersion(key uuid.UUID) {
	if ar.mode != ModeSaving {
		return
	}
	if _, ok := ar.versions[key]; ok {
		return
	}
	if v, ok := ar.opts.WriteVersions[key]; ok {
		ar.versions[key] = v
		return
	}
	ar.versions[key] = Latest().Get(key)
}

// CustomVer returns the version of key carried by this archive.
func (ar *Archive) CustomVer(key uuid.UUID) int {
	if ar.mode == ModeSaving {
		ar.UsingCustomVersion(key)
	}
	return ar.versions.Get(key)
}

// Versions returns a copy of the versions known to the archive.
func (ar *Archive) Versions() Versions { return ar.versions.clone() }

func (ar *Archive) SerializeString(s *string) {
	switch ar.mode {
	case ModeSaving:
		ar.enc.writeString(*s)
	case ModeLoading:
		*s = ar.dec.readString()
	}
}

func (ar *Archive) SerializeInt32(v *int32) {
	switch ar.mode {
	case ModeSaving:
		ar.enc.writeI32(*v)
	case ModeLoading:
		*v = ar.dec.readI32()
	}
}

func (ar *Archive) SerializeFloat64(v *float64) {
	switch ar.mode {
	case ModeSaving:
		ar.enc.writeF64(*v)
	case ModeLoading:
		*v = ar.dec.readF64()
	}
}

func (ar *Archive) SerializeBool(v *bool) {
	switch ar.mode {
	case ModeSaving:
		var b byte
		if *v {
			b = 1
		}
		ar.enc.writeU8(b)
	case ModeLoading:
		*v = ar.dec.readU8() != 0
	}
}

// SerializeRefs moves a flat actor reference collection. Null handles are
// written as empty names; on load, names the linker cannot resolve come back
// as zero refs so callers can treat them as holes.
func (ar *Archive) SerializeRefs(refs *[]level.ActorRef) {
	switch ar.mode {
	case ModeSaving:
		ar.enc.writeU32(uint32(len(*refs)))
		for _, ref := range *refs {
			name := ""
			if ar.linker != nil {
				name = ar.linker.ExportName(ref)
			}
			ar.enc.writeString(name)
		}
	case ModeLoading:
		n := ar.dec.readU32()
		if ar.dec.err != nil {
			return
		}
		if int(n) > ar.dec.remaining()/4 {
			ar.err = fmt.Errorf("archive: ref count %d: %w", n, ErrTruncated)
			return
		}
		out := make([]level.ActorRef, 0, n)
		for i := uint32(0); i < n; i++ {
			name := ar.dec.readString()
			if ar.dec.err != nil {
				return
			}
			var ref level.ActorRef
			if name != "" && ar.linker != nil {
				ref = ar.linker.ImportRef(name)
			}
			out = append(out, ref)
		}
		*refs = out
	}
}

// Bytes assembles the finished blob: magic, version table, payload and a
// blake2b-256 trailer. Only valid on saving archives.
func (ar *Archive) Bytes() ([]byte, error) {
	if ar.mode != ModeSaving {
		return nil, fmt.Errorf("archive: Bytes on %v archive", ar.mode)
	}
	head := newEncoder()
	head.writeBytes(magic[:])
	head.writeU32(uint32(len(ar.versions)))
	for _, key := range ar.versions.keys() {
		head.writeBytes(key[:])
		head.writeI32(int32(ar.versions[key]))
	}
	head.writeBytes(ar.enc.buf)
	sum := blake2b.Sum256(head.buf)
	return append(head.buf, sum[:]...), nil
}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSaving:
		return "saving"
	case ModeLoading:
		return "loading"
	}
	return "unknown"
}
