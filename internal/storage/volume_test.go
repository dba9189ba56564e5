package storage

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/Alexander-D-Karpov/blockfs/internal/domain"
)

func newTestVolume(t *testing.T, opts Options) *Volume {
	t.Helper()
	return NewVolume(domain.DefaultGeometry(), opts)
}

func mustCreate(t *testing.T, v *Volume, name string, size int64) domain.Entry {
	t.Helper()
	e, err := v.CreateFile(name, size)
	if err != nil {
		t.Fatalf("CreateFile(%q, %d) failed: %v", name, size, err)
	}
	return e
}

func mustMkdir(t *testing.T, v *Volume, path string) {
	t.Helper()
	if _, err := v.CreateDirectory(path); err != nil {
		t.Fatalf("CreateDirectory(%q) failed: %v", path, err)
	}
}

func encode(t *testing.T, v *Volume) []byte {
	t.Helper()
	data, err := v.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	return data
}

// expectUnchanged runs op, requires it to fail with want, and requires the
// encoded volume to be byte-identical afterwards.
func expectUnchanged(t *testing.T, v *Volume, want error, op func() error) {
	t.Helper()
	before := encode(t, v)
	err := op()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if after := encode(t, v); !bytes.Equal(before, after) {
		t.Fatal("failed operation mutated the volume")
	}
}

func TestNewVolume_Root(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())

	root := v.Table().Get(0)
	if root.Name != "/" || !root.IsDir() || root.Size != 0 {
		t.Errorf("unexpected root entry: %+v", root)
	}
	st := v.Stats()
	if st.FreeBlocks != 128 || st.UsedSlots != 1 || st.TotalSlots != 16 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestCreateFile_BlockAccounting(t *testing.T) {
	tests := []struct {
		size   int64
		blocks int
	}{
		{0, 0},
		{1, 1},
		{500, 1},
		{1023, 1},
		{1024, 1},
		{1025, 2},
		{4096, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("size=%d", tt.size), func(t *testing.T) {
			v := newTestVolume(t, DefaultOptions())
			freeBefore := v.Pool().CountFree()
			usedBefore := v.Table().Used()

			e := mustCreate(t, v, "f.bin", tt.size)

			if got := freeBefore - v.Pool().CountFree(); got != tt.blocks {
				t.Errorf("expected %d blocks reserved, got %d", tt.blocks, got)
			}
			if len(e.Blocks) != tt.blocks {
				t.Errorf("entry owns %d blocks, want %d", len(e.Blocks), tt.blocks)
			}
			if v.Table().Used() != usedBefore+1 {
				t.Errorf("expected one more used slot")
			}
			if !e.IsFile() {
				t.Errorf("expected file kind, got %v", e.Kind)
			}
		})
	}
}

func TestCreateFile_Failures(t *testing.T) {
	v := NewVolume(domain.Geometry{Blocks: 4, BlockSize: 1024, MaxEntries: 3, MaxNameLen: 8}, DefaultOptions())
	mustCreate(t, v, "a", 100)

	expectUnchanged(t, v, domain.ErrAlreadyExists, func() error {
		_, err := v.CreateFile("a", 10)
		return err
	})
	expectUnchanged(t, v, domain.ErrInsufficientSpace, func() error {
		_, err := v.CreateFile("big", 4*1024)
		return err
	})
	expectUnchanged(t, v, domain.ErrInvalidSize, func() error {
		_, err := v.CreateFile("neg", -1)
		return err
	})
	expectUnchanged(t, v, domain.ErrInvalidName, func() error {
		_, err := v.CreateFile("waytoolong.txt", 1)
		return err
	})
	expectUnchanged(t, v, domain.ErrInvalidName, func() error {
		_, err := v.CreateFile("", 1)
		return err
	})

	mustCreate(t, v, "b", 100)
	expectUnchanged(t, v, domain.ErrTableFull, func() error {
		_, err := v.CreateFile("c", 100)
		return err
	})
}

func TestCreateFile_SpaceCheckedBeforeSlot(t *testing.T) {
	v := NewVolume(domain.Geometry{Blocks: 1, BlockSize: 1024, MaxEntries: 2, MaxNameLen: 8}, DefaultOptions())
	mustCreate(t, v, "a", 1)

	_, err := v.CreateFile("b", 1)
	if !errors.Is(err, domain.ErrInsufficientSpace) {
		t.Fatalf("expected space error to win over table full, got %v", err)
	}
}

func TestCreateFile_TableCapacity(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())

	// The root directory holds one of the sixteen slots.
	for i := 0; i < 15; i++ {
		mustCreate(t, v, fmt.Sprintf("f%d", i), 10)
	}
	expectUnchanged(t, v, domain.ErrTableFull, func() error {
		_, err := v.CreateFile("extra", 10)
		return err
	})
	if v.Table().Used() != 16 {
		t.Errorf("expected a full table, got %d used", v.Table().Used())
	}
}

func TestDeleteFile_RestoresFreeCount(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	free := v.Pool().CountFree()

	e := mustCreate(t, v, "a.txt", 3000)
	if err := v.DeleteFile("a.txt"); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if v.Pool().CountFree() != free {
		t.Fatalf("expected %d free after delete, got %d", free, v.Pool().CountFree())
	}

	again := mustCreate(t, v, "a.txt", 3000)
	if v.Pool().CountFree() != free-3 {
		t.Errorf("expected %d free after re-create, got %d", free-3, v.Pool().CountFree())
	}
	if !reflect.DeepEqual(e.Blocks, again.Blocks) {
		t.Errorf("re-create should reuse the same first-free blocks: %v vs %v", e.Blocks, again.Blocks)
	}
}

func TestDeleteFile_ReleasesOwnBlocksOnly(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	a := mustCreate(t, v, "a", 2048)
	b := mustCreate(t, v, "b", 1024)

	if err := v.DeleteFile("b"); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	for _, blk := range a.Blocks {
		if v.Pool().IsFree(blk) {
			t.Errorf("block %d of a was released by deleting b", blk)
		}
	}
	for _, blk := range b.Blocks {
		if !v.Pool().IsFree(blk) {
			t.Errorf("block %d of b still used", blk)
		}
	}
}

func TestDeleteFile_Failures(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	mustMkdir(t, v, "/d")

	expectUnchanged(t, v, domain.ErrNotFound, func() error { return v.DeleteFile("nope") })
	expectUnchanged(t, v, domain.ErrIsDirectory, func() error { return v.DeleteFile("/d") })
	expectUnchanged(t, v, domain.ErrIsDirectory, func() error { return v.DeleteFile("/") })
}

func TestCopyFile(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	src := mustCreate(t, v, "a", 2500)
	free := v.Pool().CountFree()

	dst, err := v.CopyFile("a", "b")
	if err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	if dst.Size != src.Size || dst.Name != "b" {
		t.Errorf("unexpected copy: %+v", dst)
	}
	if free-v.Pool().CountFree() != 3 {
		t.Errorf("expected 3 blocks reserved for copy, got %d", free-v.Pool().CountFree())
	}
	for _, blk := range dst.Blocks {
		for _, s := range src.Blocks {
			if blk == s {
				t.Fatalf("copy shares block %d with source", blk)
			}
		}
	}
}

func TestCopyFile_Failures(t *testing.T) {
	v := NewVolume(domain.Geometry{Blocks: 4, BlockSize: 1024, MaxEntries: 4, MaxNameLen: 8}, DefaultOptions())
	mustCreate(t, v, "a", 3000)
	mustCreate(t, v, "b", 0)
	mustMkdir(t, v, "/d")

	expectUnchanged(t, v, domain.ErrNotFound, func() error {
		_, err := v.CopyFile("zzz", "c")
		return err
	})
	expectUnchanged(t, v, domain.ErrAlreadyExists, func() error {
		_, err := v.CopyFile("a", "b")
		return err
	})
	expectUnchanged(t, v, domain.ErrIsDirectory, func() error {
		_, err := v.CopyFile("/d", "c")
		return err
	})
	expectUnchanged(t, v, domain.ErrInsufficientSpace, func() error {
		_, err := v.CopyFile("a", "c")
		return err
	})
	expectUnchanged(t, v, domain.ErrTableFull, func() error {
		_, err := v.CopyFile("b", "c")
		return err
	})
}

// The moved entry keeps its blocks; the historical behaviour of also
// releasing them on rename is not reproduced.
func TestMoveFile_KeepsBlocks(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	src := mustCreate(t, v, "a", 2048)
	free := v.Pool().CountFree()

	res, err := v.MoveFile("a", "b")
	if err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if res.Overwrote {
		t.Error("unexpected overwrite")
	}
	if v.Pool().CountFree() != free {
		t.Errorf("rename changed free count: %d -> %d", free, v.Pool().CountFree())
	}
	if _, ok := v.Lookup("a"); ok {
		t.Error("source still present")
	}
	moved, ok := v.Lookup("b")
	if !ok {
		t.Fatal("destination missing")
	}
	if !reflect.DeepEqual(moved.Blocks, src.Blocks) || moved.Size != src.Size {
		t.Errorf("moved entry changed: %+v vs %+v", moved, src)
	}
}

func TestMoveFile_Overwrite(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	mustCreate(t, v, "a", 1000)
	dst := mustCreate(t, v, "b", 3000)
	free := v.Pool().CountFree()
	used := v.Table().Used()

	res, err := v.MoveFile("a", "b")
	if err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if !res.Overwrote || res.ReleasedBlocks != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
	if v.Pool().CountFree() != free+3 {
		t.Errorf("expected %d free, got %d", free+3, v.Pool().CountFree())
	}
	if v.Table().Used() != used-1 {
		t.Errorf("expected one slot freed")
	}
	for _, blk := range dst.Blocks {
		if !v.Pool().IsFree(blk) {
			t.Errorf("overwritten block %d still used", blk)
		}
	}
	if e, _ := v.Lookup("b"); e.Size != 1000 {
		t.Errorf("destination should carry source size, got %d", e.Size)
	}
}

func TestMoveFile_SameName(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	mustCreate(t, v, "a", 10)
	before := encode(t, v)

	res, err := v.MoveFile("a", "a")
	if err != nil || res.Overwrote {
		t.Fatalf("MoveFile(a, a) = %+v, %v", res, err)
	}
	if !bytes.Equal(before, encode(t, v)) {
		t.Error("self-move mutated the volume")
	}
}

func TestMoveFile_Failures(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	mustCreate(t, v, "a", 10)
	mustMkdir(t, v, "/d")

	expectUnchanged(t, v, domain.ErrNotFound, func() error {
		_, err := v.MoveFile("zzz", "b")
		return err
	})
	expectUnchanged(t, v, domain.ErrIsDirectory, func() error {
		_, err := v.MoveFile("a", "/d")
		return err
	})
	expectUnchanged(t, v, domain.ErrIsDirectory, func() error {
		_, err := v.MoveFile("/d", "/e")
		return err
	})
	expectUnchanged(t, v, domain.ErrInvalidName, func() error {
		_, err := v.MoveFile("a", "muchtoolong")
		return err
	})
}

func TestCreateDirectory(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	free := v.Pool().CountFree()

	mustMkdir(t, v, "/sub")
	mustMkdir(t, v, "/sub/x")

	e, ok := v.Lookup("/sub/x")
	if !ok || !e.IsDir() || e.Size != 0 {
		t.Errorf("unexpected directory entry: %+v", e)
	}
	if v.Pool().CountFree() != free {
		t.Error("directories must not reserve blocks")
	}

	expectUnchanged(t, v, domain.ErrAlreadyExists, func() error {
		_, err := v.CreateDirectory("/sub")
		return err
	})
	expectUnchanged(t, v, domain.ErrAlreadyExists, func() error {
		_, err := v.CreateDirectory("/")
		return err
	})
	expectUnchanged(t, v, domain.ErrInvalidPath, func() error {
		_, err := v.CreateDirectory("sub")
		return err
	})
	expectUnchanged(t, v, domain.ErrParentNotFound, func() error {
		_, err := v.CreateDirectory("/a/b")
		return err
	})

	mustCreate(t, v, "/f", 10)
	expectUnchanged(t, v, domain.ErrNotDirectory, func() error {
		_, err := v.CreateDirectory("/f/x")
		return err
	})
}

func TestCreateDirectory_TableFull(t *testing.T) {
	v := NewVolume(domain.Geometry{Blocks: 4, BlockSize: 1024, MaxEntries: 2, MaxNameLen: 8}, DefaultOptions())
	mustMkdir(t, v, "/a")

	expectUnchanged(t, v, domain.ErrTableFull, func() error {
		_, err := v.CreateDirectory("/b")
		return err
	})
}

func TestParentOfPath(t *testing.T) {
	tests := map[string]string{
		"/sub":   "/",
		"/a/b":   "/a",
		"/a/b/c": "/a/b",
		"/a/":    "/a",
	}
	for in, want := range tests {
		got, err := parentOf(in)
		if err != nil || got != want {
			t.Errorf("parentOf(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := parentOf("nosep"); !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}

func TestRemoveDirectory_Failures(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	mustCreate(t, v, "/f", 10)

	expectUnchanged(t, v, domain.ErrNotFound, func() error {
		_, err := v.RemoveDirectory("/nope")
		return err
	})
	expectUnchanged(t, v, domain.ErrRootDirectory, func() error {
		_, err := v.RemoveDirectory("/")
		return err
	})
	expectUnchanged(t, v, domain.ErrNotDirectory, func() error {
		_, err := v.RemoveDirectory("/f")
		return err
	})
}

// Prefix containment is not path aware: removing "/a" also claims "/ab".
func TestRemoveDirectory_PrefixContainment(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	mustMkdir(t, v, "/a")
	mustMkdir(t, v, "/a/x")
	mustCreate(t, v, "/a/f", 2048)
	mustMkdir(t, v, "/ab")
	mustMkdir(t, v, "/b")
	mustCreate(t, v, "a.txt", 10)
	free := v.Pool().CountFree()

	removed, err := v.RemoveDirectory("/a")
	if err != nil {
		t.Fatalf("RemoveDirectory failed: %v", err)
	}

	want := []string{"/a", "/a/x", "/a/f", "/ab"}
	if !reflect.DeepEqual(removed, want) {
		t.Errorf("removed %v, want %v", removed, want)
	}
	for _, name := range []string{"/", "/b", "a.txt"} {
		if _, ok := v.Lookup(name); !ok {
			t.Errorf("%s should survive", name)
		}
	}
	if v.Pool().CountFree() != free+2 {
		t.Errorf("descendant blocks not released: %d free, want %d", v.Pool().CountFree(), free+2)
	}
}

func TestRemoveDirectory_PathContainment(t *testing.T) {
	v := newTestVolume(t, Options{Containment: domain.ContainmentPath, Listing: domain.ListLegacy})
	mustMkdir(t, v, "/a")
	mustMkdir(t, v, "/a/x")
	mustMkdir(t, v, "/a/x/y")
	mustMkdir(t, v, "/ab")

	removed, err := v.RemoveDirectory("/a")
	if err != nil {
		t.Fatalf("RemoveDirectory failed: %v", err)
	}
	if want := []string{"/a", "/a/x", "/a/x/y"}; !reflect.DeepEqual(removed, want) {
		t.Errorf("removed %v, want %v", removed, want)
	}
	if _, ok := v.Lookup("/ab"); !ok {
		t.Error("/ab must survive path containment")
	}
}

func names(entries []domain.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestListAllFiles_Legacy(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	mustCreate(t, v, "a.txt", 1023)
	mustCreate(t, v, "b.txt", 1024)
	mustCreate(t, v, "c1.txt", 10)
	mustCreate(t, v, "empty", 0)
	mustMkdir(t, v, "/sub")
	mustCreate(t, v, "Zz_.", 5)

	got := names(v.ListAllFiles())
	want := []string{"/", "a.txt", "/sub", "Zz_."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("listed %v, want %v", got, want)
	}
}

// An empty file has a file kind, so legacy listing shows it neither as a
// directory nor as a file.
func TestListAllFiles_LegacyHidesEmptyFile(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	mustCreate(t, v, "x", 0)

	for _, e := range v.ListAllFiles() {
		if e.Name == "x" {
			t.Errorf("empty file listed as %v", e.Kind)
		}
	}
	if e, ok := v.Lookup("x"); !ok || e.IsDir() {
		t.Errorf("x = %+v, %v; want an existing file", e, ok)
	}

	all := NewVolume(v.Geometry(), Options{Containment: domain.ContainmentPrefix, Listing: domain.ListAll})
	mustCreate(t, all, "x", 0)
	if got := names(all.ListAllFiles()); !reflect.DeepEqual(got, []string{"/", "x"}) {
		t.Errorf("all listing = %v", got)
	}
}

func TestListAllFiles_All(t *testing.T) {
	v := newTestVolume(t, Options{Containment: domain.ContainmentPrefix, Listing: domain.ListAll})
	mustCreate(t, v, "a.txt", 1023)
	mustCreate(t, v, "b.txt", 1024)
	mustCreate(t, v, "c1.txt", 10)

	got := names(v.ListAllFiles())
	want := []string{"/", "a.txt", "b.txt", "c1.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("listed %v, want %v", got, want)
	}
}

func TestBlockOwnership(t *testing.T) {
	v := newTestVolume(t, DefaultOptions())
	mustCreate(t, v, "a", 5000)
	mustCreate(t, v, "b", 100)
	if _, err := v.CopyFile("a", "c"); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	if _, err := v.MoveFile("b", "a"); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	mustMkdir(t, v, "/d")
	mustCreate(t, v, "/d/f", 1500)
	if _, err := v.RemoveDirectory("/d"); err != nil {
		t.Fatalf("RemoveDirectory failed: %v", err)
	}

	owner := make(map[int]string)
	for _, e := range v.Table().Entries() {
		for _, blk := range e.Blocks {
			if prev, dup := owner[blk]; dup {
				t.Fatalf("block %d owned by %s and %s", blk, prev, e.Name)
			}
			owner[blk] = e.Name
			if v.Pool().IsFree(blk) {
				t.Errorf("block %d owned by %s is free", blk, e.Name)
			}
		}
	}
	if len(owner) != v.Pool().CountUsed() {
		t.Errorf("%d owned blocks but %d used", len(owner), v.Pool().CountUsed())
	}
	if v.Pool().CountFree()+v.Pool().CountUsed() != v.Pool().Len() {
		t.Error("free + used != total")
	}
}
