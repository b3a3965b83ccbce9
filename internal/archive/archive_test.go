package archive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/l1jgo/levelsave/internal/level"
	"golang.org/x/crypto/blake2b"
)

// mapLinker names refs by a fixed table.
type mapLinker map[level.ActorRef]string

func (m mapLinker) ExportName(ref level.ActorRef) string { return m[ref] }

func (m mapLinker) ImportRef(name string) level.ActorRef {
	for ref, n := range m {
		if n == name {
			return ref
		}
	}
	return 0
}

type payload struct {
	name  string
	count int32
	time  float64
	flag  bool
	refs  []level.ActorRef
}

func (p *payload) serialize(ar *Archive) {
	ar.UsingCustomVersion(FactoryGameGUID)
	ar.SerializeString(&p.name)
	ar.SerializeInt32(&p.count)
	ar.SerializeFloat64(&p.time)
	ar.SerializeBool(&p.flag)
	ar.SerializeRefs(&p.refs)
}

func saveBlob(t *testing.T, p payload, linker Linker, opts Options) []byte {
	t.Helper()
	ar := NewSaver(linker, opts)
	p.serialize(ar)
	blob, err := ar.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return blob
}

func TestRoundTrip(t *testing.T) {
	links := mapLinker{7: "Crate", 9: "Lamp"}
	in := payload{name: "Map", count: -3, time: 6.25, flag: true, refs: []level.ActorRef{9, 0, 7, 42}}
	blob := saveBlob(t, in, links, Options{})

	ar, err := NewLoader(blob, links, Options{})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if !ar.IsLoading() || ar.CustomVer(FactoryGameGUID) != LatestVersion {
		t.Fatalf("mode=%v version=%d", ar.Mode(), ar.CustomVer(FactoryGameGUID))
	}
	var out payload
	out.serialize(ar)
	if err := ar.Err(); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.name != in.name || out.count != in.count || out.time != in.time || out.flag != in.flag {
		t.Fatalf("scalars = %+v, want %+v", out, in)
	}
	// 0 and the unnamed 42 come back as holes.
	want := []level.ActorRef{9, 0, 7, 0}
	if len(out.refs) != len(want) {
		t.Fatalf("refs = %v, want %v", out.refs, want)
	}
	for i := range want {
		if out.refs[i] != want[i] {
			t.Fatalf("refs = %v, want %v", out.refs, want)
		}
	}
}

func TestWriteVersionOverride(t *testing.T) {
	opts := Options{WriteVersions: Versions{FactoryGameGUID: FoliageRemovalSaved}}
	ar := NewSaver(nil, opts)
	if got := ar.CustomVer(FactoryGameGUID); got != FoliageRemovalSaved {
		t.Fatalf("saver version = %d", got)
	}
	blob, err := ar.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	in, err := NewLoader(blob, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := in.CustomVer(FactoryGameGUID); got != FoliageRemovalSaved {
		t.Fatalf("loaded version = %d", got)
	}
	other := uuid.New()
	if in.CustomVer(other) != BeforeCustomVersion {
		t.Fatalf("unknown key should read as BeforeCustomVersion")
	}
}

func TestBytesIsDeterministic(t *testing.T) {
	keys := []uuid.UUID{FactoryGameGUID}
	for i := 0; i < 6; i++ {
		keys = append(keys, uuid.New())
	}
	build := func() []byte {
		ar := NewSaver(nil, Options{})
		for _, k := range keys {
			ar.UsingCustomVersion(k)
		}
		name := "Map"
		ar.SerializeString(&name)
		blob, err := ar.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		return blob
	}

	first := build()
	for i := 0; i < 20; i++ {
		if !bytes.Equal(build(), first) {
			t.Fatalf("identical saves produced different blobs")
		}
	}
	in, err := NewLoader(first, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(in.Versions()) != len(keys) {
		t.Fatalf("versions = %d, want %d", len(in.Versions()), len(keys))
	}
}

func TestLoaderRejectsCorruption(t *testing.T) {
	blob := saveBlob(t, payload{name: "Map"}, nil, Options{})

	flipped := append([]byte(nil), blob...)
	flipped[len(magic)+2] ^= 0xff
	if _, err := NewLoader(flipped, nil, Options{}); !errors.Is(err, ErrChecksum) {
		t.Fatalf("flipped byte: %v", err)
	}

	if _, err := NewLoader(blob[:10], nil, Options{}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("short blob: %v", err)
	}

	// Valid trailer over a foreign header.
	body := append([]byte("NOPE"), blob[len(magic):len(blob)-blake2b.Size256]...)
	sum := blake2b.Sum256(body)
	if _, err := NewLoader(append(body, sum[:]...), nil, Options{}); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("bad magic: %v", err)
	}
}

func TestReadPastEndIsSticky(t *testing.T) {
	ar := NewSaver(nil, Options{})
	name := "only"
	ar.SerializeString(&name)
	blob, err := ar.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	in, err := NewLoader(blob, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var got string
	var n int32
	in.SerializeString(&got)
	in.SerializeInt32(&n)
	in.SerializeString(&got)
	if !errors.Is(in.Err(), ErrTruncated) {
		t.Fatalf("Err = %v, want ErrTruncated", in.Err())
	}
}

func TestNullArchive(t *testing.T) {
	ar := NewNull(Options{SaveGame: true})
	if ar.IsSaving() || ar.IsLoading() || !ar.IsSaveGame() {
		t.Fatalf("unexpected null archive flags")
	}
	ar.UsingCustomVersion(FactoryGameGUID)
	if ar.CustomVer(FactoryGameGUID) != BeforeCustomVersion {
		t.Fatalf("null archive carries a version")
	}
	v := "untouched"
	ar.SerializeString(&v)
	if v != "untouched" {
		t.Fatalf("null archive modified value")
	}
	if _, err := ar.Bytes(); err == nil {
		t.Fatalf("Bytes on a null archive must fail")
	}
}

func TestCookingOnlyWhenSaving(t *testing.T) {
	if !NewSaver(nil, Options{Cooking: true}).IsCooking() {
		t.Fatalf("saver with Cooking not cooking")
	}
	if NewNull(Options{Cooking: true}).IsCooking() {
		t.Fatalf("null archive reports cooking")
	}
}
