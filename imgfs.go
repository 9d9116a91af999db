package imgfs

import (
	"fmt"
	"io"
	"os"
)

// FS is an open image store. It owns the backing file handle and the
// in-memory copy of the header and metadata table. FS methods are not safe
// for concurrent use; callers that share an FS across goroutines must
// serialize access themselves.
type FS struct {
	file     *os.File
	header   Header
	metadata []Metadata
	readOnly bool
}

// Open opens an existing store read/write.
func Open(path string) (*FS, error) {
	return OpenFile(path, os.O_RDWR)
}

// OpenFile opens an existing store with specific flags. Pass os.O_RDONLY
// for read-only access; write operations on a read-only store fail.
func OpenFile(path string, flag int) (*FS, error) {
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}

	fs, err := newFS(f, flag&os.O_RDWR == 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return fs, nil
}

// newFS reads the header and the full metadata table from an open file.
func newFS(f *os.File, readOnly bool) (*FS, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, HeaderSize), headerBuf); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrIO, err)
	}
	header, err := ParseHeader(headerBuf)
	if err != nil {
		return nil, err
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}

	tableBuf := make([]byte, int64(header.MaxFiles)*MetadataSize)
	if _, err := f.ReadAt(tableBuf, HeaderSize); err != nil {
		return nil, fmt.Errorf("%w: read metadata table: %v", ErrIO, err)
	}
	metadata := make([]Metadata, header.MaxFiles)
	for i := range metadata {
		m, err := ParseMetadata(tableBuf[i*MetadataSize:])
		if err != nil {
			return nil, err
		}
		metadata[i] = *m
	}

	return &FS{
		file:     f,
		header:   *header,
		metadata: metadata,
		readOnly: readOnly,
	}, nil
}

// Close releases the metadata table and closes the backing file. Closing an
// already-closed store is a no-op.
func (fs *FS) Close() error {
	if fs.file == nil {
		return nil
	}
	err := fs.file.Close()
	fs.file = nil
	fs.metadata = nil
	if err != nil {
		return fmt.Errorf("%w: close: %v", ErrIO, err)
	}
	return nil
}

// Header returns a copy of the in-memory header.
func (fs *FS) Header() Header {
	return fs.header
}

// Metadata returns a copy of slot index.
func (fs *FS) Metadata(index uint32) (Metadata, error) {
	if index >= fs.header.MaxFiles {
		return Metadata{}, fmt.Errorf("%w: slot %d out of range", ErrInvalidArgument, index)
	}
	return fs.metadata[index], nil
}

// writeHeader rewrites the header record at offset 0.
func (fs *FS) writeHeader() error {
	if _, err := fs.file.WriteAt(fs.header.Encode(), 0); err != nil {
		return fmt.Errorf("%w: write header: %v", ErrIO, err)
	}
	return nil
}

// writeSlot rewrites slot index in place.
func (fs *FS) writeSlot(index uint32) error {
	if _, err := fs.file.WriteAt(fs.metadata[index].Encode(), slotOffset(index)); err != nil {
		return fmt.Errorf("%w: write slot %d: %v", ErrIO, index, err)
	}
	return nil
}

// appendBlob appends data at the end of the file and returns its absolute
// offset.
func (fs *FS) appendBlob(data []byte) (uint64, error) {
	end, err := fs.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("%w: seek to end: %v", ErrIO, err)
	}
	if _, err := fs.file.WriteAt(data, end); err != nil {
		return 0, fmt.Errorf("%w: append blob: %v", ErrIO, err)
	}
	return uint64(end), nil
}

// readBlob reads size bytes at the given absolute offset.
func (fs *FS) readBlob(offset uint64, size uint32) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := fs.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("%w: read blob at %d: %v", ErrIO, offset, err)
	}
	return buf, nil
}

// findSlot returns the index of the valid slot holding imgID.
func (fs *FS) findSlot(imgID string) (uint32, error) {
	for i := range fs.metadata {
		if fs.metadata[i].IsValid == NonEmpty && fs.metadata[i].ImgID == imgID {
			return uint32(i), nil
		}
	}
	return 0, ErrImageNotFound
}
