package imgfs

import (
	"bytes"
	"errors"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ehrlich-b/go-imgfs/testutil"
)

func newStore(t *testing.T, opts CreateOptions) (*FS, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.imgfs")
	fs, err := Create(path, opts)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { fs.Close() })
	return fs, path
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	return info.Size()
}

func TestCreateAndOpen(t *testing.T) {
	t.Parallel()
	fs, path := newStore(t, CreateOptions{MaxFiles: 4})

	h := fs.Header()
	if h.Name != StoreLabel {
		t.Errorf("Name = %q, want %q", h.Name, StoreLabel)
	}
	if h.MaxFiles != 4 || h.NbFiles != 0 || h.Version != 0 {
		t.Errorf("header = %+v, want max 4, zero counters", h)
	}
	want := [4]uint16{DefaultThumbRes, DefaultThumbRes, DefaultSmallRes, DefaultSmallRes}
	if h.ResizedRes != want {
		t.Errorf("ResizedRes = %v, want %v", h.ResizedRes, want)
	}
	if got := fileSize(t, path); got != HeaderSize+4*MetadataSize {
		t.Errorf("file size = %d, want %d", got, HeaderSize+4*MetadataSize)
	}
	fs.Close()

	fs2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer fs2.Close()
	if got := fs2.Header(); got != h {
		t.Errorf("reopened header = %+v, want %+v", got, h)
	}
}

func TestCreateRejectsBadResolutions(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "test.imgfs")

	_, err := Create(path, CreateOptions{ThumbWidth: 999, ThumbHeight: 64, SmallWidth: 256, SmallHeight: 256})
	if !errors.Is(err, ErrResolutions) {
		t.Errorf("oversized thumb: err = %v, want ErrResolutions", err)
	}
	_, err = Create(path, CreateOptions{ThumbWidth: 64, ThumbHeight: 64, SmallWidth: 1024, SmallHeight: 256})
	if !errors.Is(err, ErrResolutions) {
		t.Errorf("oversized small: err = %v, want ErrResolutions", err)
	}
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()
	_, err := Open(filepath.Join(t.TempDir(), "nope.imgfs"))
	if !errors.Is(err, ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{})
	if err := fs.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestInsertReadRoundtrip(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{MaxFiles: 4})
	image := testutil.MakeJPEG(t, 200, 120, 1)

	if err := fs.Insert(image, "cat.jpg"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	h := fs.Header()
	if h.NbFiles != 1 || h.Version != 1 {
		t.Errorf("after insert: nb_files=%d version=%d, want 1/1", h.NbFiles, h.Version)
	}

	got, err := fs.Read("cat.jpg", OrigRes)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Errorf("Read returned %d bytes, want the original %d", len(got), len(image))
	}

	slot, err := fs.Metadata(0)
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if slot.OrigRes != [2]uint32{200, 120} {
		t.Errorf("OrigRes = %v, want [200 120]", slot.OrigRes)
	}
	if slot.Offset[OrigRes] == 0 || slot.Size[OrigRes] != uint32(len(image)) {
		t.Errorf("orig blob = offset %d size %d, want nonzero/%d",
			slot.Offset[OrigRes], slot.Size[OrigRes], len(image))
	}
}

func TestInsertPersists(t *testing.T) {
	t.Parallel()
	fs, path := newStore(t, CreateOptions{MaxFiles: 4})
	image := testutil.MakeJPEG(t, 64, 64, 2)
	if err := fs.Insert(image, "a"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	fs.Close()

	fs2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer fs2.Close()
	got, err := fs2.Read("a", OrigRes)
	if err != nil {
		t.Fatalf("Read after reopen failed: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Error("reopened store returned different bytes")
	}
}

func TestInsertInvalidID(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{})
	image := testutil.MakeJPEG(t, 32, 32, 3)

	if err := fs.Insert(image, ""); !errors.Is(err, ErrInvalidImgID) {
		t.Errorf("empty id: err = %v, want ErrInvalidImgID", err)
	}
	if err := fs.Insert(image, strings.Repeat("x", MaxImgID+1)); !errors.Is(err, ErrInvalidImgID) {
		t.Errorf("long id: err = %v, want ErrInvalidImgID", err)
	}
}

func TestInsertNotJPEG(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{})
	if err := fs.Insert([]byte("definitely not a JPEG"), "a"); !errors.Is(err, ErrImgLib) {
		t.Errorf("err = %v, want ErrImgLib", err)
	}
	if h := fs.Header(); h.NbFiles != 0 || h.Version != 0 {
		t.Errorf("failed insert mutated header: %+v", h)
	}
}

func TestDuplicateID(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{MaxFiles: 4})
	if err := fs.Insert(testutil.MakeJPEG(t, 40, 40, 1), "a"); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	err := fs.Insert(testutil.MakeJPEG(t, 40, 40, 2), "a")
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
	if h := fs.Header(); h.NbFiles != 1 || h.Version != 1 {
		t.Errorf("rejected insert mutated header: %+v", h)
	}
}

func TestStoreFull(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{MaxFiles: 1})
	if err := fs.Insert(testutil.MakeJPEG(t, 40, 40, 1), "a"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	err := fs.Insert(testutil.MakeJPEG(t, 40, 40, 2), "b")
	if !errors.Is(err, ErrImgFSFull) {
		t.Errorf("err = %v, want ErrImgFSFull", err)
	}
}

func TestDedupByContent(t *testing.T) {
	t.Parallel()
	fs, path := newStore(t, CreateOptions{MaxFiles: 4})
	image := testutil.MakeJPEG(t, 100, 80, 7)

	if err := fs.Insert(image, "a"); err != nil {
		t.Fatalf("Insert a failed: %v", err)
	}
	sizeAfterFirst := fileSize(t, path)

	if err := fs.Insert(image, "b"); err != nil {
		t.Fatalf("Insert b failed: %v", err)
	}
	if got := fileSize(t, path); got != sizeAfterFirst {
		t.Errorf("file grew from %d to %d on duplicate content", sizeAfterFirst, got)
	}

	slotA, _ := fs.Metadata(0)
	slotB, _ := fs.Metadata(1)
	if slotA.Offset != slotB.Offset || slotA.Size != slotB.Size {
		t.Errorf("aliased slots differ: %v/%v vs %v/%v",
			slotA.Offset, slotA.Size, slotB.Offset, slotB.Size)
	}

	// deleting one alias must not break the other
	if err := fs.Delete("a"); err != nil {
		t.Fatalf("Delete a failed: %v", err)
	}
	got, err := fs.Read("b", OrigRes)
	if err != nil {
		t.Fatalf("Read b after deleting alias failed: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Error("aliased slot returned different bytes after delete")
	}
}

func TestDeleteAccounting(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{MaxFiles: 4})
	if err := fs.Insert(testutil.MakeJPEG(t, 40, 40, 1), "cat.jpg"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := fs.Delete("cat.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	h := fs.Header()
	if h.NbFiles != 0 || h.Version != 2 {
		t.Errorf("after delete: nb_files=%d version=%d, want 0/2", h.NbFiles, h.Version)
	}

	if err := fs.Delete("cat.jpg"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("second delete: err = %v, want ErrImageNotFound", err)
	}
	if got := fs.Header().Version; got != 2 {
		t.Errorf("failed delete bumped version to %d", got)
	}
}

func TestLazyResize(t *testing.T) {
	t.Parallel()
	fs, path := newStore(t, CreateOptions{MaxFiles: 4})
	if err := fs.Insert(testutil.MakeJPEG(t, 300, 200, 1), "cat.jpg"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	versionBefore := fs.Header().Version

	thumb, err := fs.Read("cat.jpg", ThumbRes)
	if err != nil {
		t.Fatalf("Read thumb failed: %v", err)
	}

	slot, _ := fs.Metadata(0)
	if slot.Size[ThumbRes] == 0 || slot.Offset[ThumbRes] == 0 {
		t.Fatalf("thumb not materialized: size=%d offset=%d", slot.Size[ThumbRes], slot.Offset[ThumbRes])
	}
	if slot.Offset[ThumbRes] <= slot.Offset[OrigRes] {
		t.Errorf("thumb offset %d not past original at %d", slot.Offset[ThumbRes], slot.Offset[OrigRes])
	}
	if got := fs.Header().Version; got != versionBefore {
		t.Errorf("lazy resize bumped version from %d to %d", versionBefore, got)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("thumb is not a JPEG: %v", err)
	}
	if cfg.Width > DefaultThumbRes || cfg.Height > DefaultThumbRes {
		t.Errorf("thumb is %dx%d, want within %dx%d", cfg.Width, cfg.Height, DefaultThumbRes, DefaultThumbRes)
	}

	// a second read serves the stored variant without appending
	sizeAfterFirst := fileSize(t, path)
	again, err := fs.Read("cat.jpg", ThumbRes)
	if err != nil {
		t.Fatalf("second Read thumb failed: %v", err)
	}
	if !bytes.Equal(again, thumb) {
		t.Error("second thumb read returned different bytes")
	}
	if got := fileSize(t, path); got != sizeAfterFirst {
		t.Errorf("second read grew the file from %d to %d", sizeAfterFirst, got)
	}
}

func TestSizeOffsetPairing(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{MaxFiles: 4})
	if err := fs.Insert(testutil.MakeJPEG(t, 300, 200, 1), "a"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := fs.Read("a", SmallRes); err != nil {
		t.Fatalf("Read small failed: %v", err)
	}

	slot, _ := fs.Metadata(0)
	for r := 0; r < NbRes; r++ {
		if (slot.Size[r] == 0) != (slot.Offset[r] == 0) {
			t.Errorf("resolution %d: size=%d offset=%d violate pairing", r, slot.Size[r], slot.Offset[r])
		}
	}
	if slot.Size[OrigRes] == 0 || slot.Offset[OrigRes] == 0 {
		t.Error("original blob must always be materialized")
	}
}

func TestReadErrors(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{})
	if _, err := fs.Read("ghost", OrigRes); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("missing image: err = %v, want ErrImageNotFound", err)
	}
	if err := fs.Insert(testutil.MakeJPEG(t, 32, 32, 1), "a"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := fs.Read("a", NbRes); !errors.Is(err, ErrResolutions) {
		t.Errorf("bad resolution: err = %v, want ErrResolutions", err)
	}
}

func TestVersionCountsMutations(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{MaxFiles: 8})

	mutations := uint32(0)
	for i := 0; i < 3; i++ {
		if err := fs.Insert(testutil.MakeJPEG(t, 40, 40, i), string(rune('a'+i))); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
		mutations++
	}
	if err := fs.Delete("b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	mutations++

	h := fs.Header()
	if h.Version != mutations {
		t.Errorf("version = %d, want %d", h.Version, mutations)
	}
	if h.NbFiles != 2 {
		t.Errorf("nb_files = %d, want 2", h.NbFiles)
	}

	// a freed slot is reused by the next insert
	if err := fs.Insert(testutil.MakeJPEG(t, 40, 40, 9), "d"); err != nil {
		t.Fatalf("Insert into freed slot failed: %v", err)
	}
	slot, _ := fs.Metadata(1)
	if slot.ImgID != "d" || slot.IsValid != NonEmpty {
		t.Errorf("slot 1 = %q valid=%d, want reused by %q", slot.ImgID, slot.IsValid, "d")
	}
}

func TestListJSON(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{MaxFiles: 4})

	got, err := fs.ListJSON()
	if err != nil {
		t.Fatalf("ListJSON failed: %v", err)
	}
	if string(got) != `{"Images":[]}` {
		t.Errorf("empty listing = %s", got)
	}

	if err := fs.Insert(testutil.MakeJPEG(t, 40, 40, 1), "cat.jpg"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	got, err = fs.ListJSON()
	if err != nil {
		t.Fatalf("ListJSON failed: %v", err)
	}
	if string(got) != `{"Images":["cat.jpg"]}` {
		t.Errorf("listing = %s, want {\"Images\":[\"cat.jpg\"]}", got)
	}
}

func TestWriteList(t *testing.T) {
	t.Parallel()
	fs, _ := newStore(t, CreateOptions{MaxFiles: 4})

	var out bytes.Buffer
	if err := fs.WriteList(&out); err != nil {
		t.Fatalf("WriteList failed: %v", err)
	}
	if !strings.Contains(out.String(), "<< empty imgFS >>") {
		t.Errorf("empty listing missing marker:\n%s", out.String())
	}

	if err := fs.Insert(testutil.MakeJPEG(t, 40, 40, 1), "cat.jpg"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	out.Reset()
	if err := fs.WriteList(&out); err != nil {
		t.Fatalf("WriteList failed: %v", err)
	}
	listing := out.String()
	if !strings.Contains(listing, "IMAGE ID: cat.jpg") {
		t.Errorf("listing missing image id:\n%s", listing)
	}
	if !strings.Contains(listing, StoreLabel) {
		t.Errorf("listing missing store name:\n%s", listing)
	}
}
