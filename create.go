package imgfs

import (
	"fmt"
	"os"
)

// Default and maximum creation parameters.
const (
	DefaultMaxFiles = 128
	DefaultThumbRes = 64
	DefaultSmallRes = 256
	MaxThumbRes     = 128
	MaxSmallRes     = 512
)

// CreateOptions configures a new store.
type CreateOptions struct {
	// MaxFiles is the slot table capacity. Default is DefaultMaxFiles.
	MaxFiles uint32

	// ThumbWidth and ThumbHeight bound the thumbnail variant.
	// Default is DefaultThumbRes square; maximum MaxThumbRes.
	ThumbWidth, ThumbHeight uint16

	// SmallWidth and SmallHeight bound the small variant.
	// Default is DefaultSmallRes square; maximum MaxSmallRes.
	SmallWidth, SmallHeight uint16
}

// Create creates a new store file at path: a header carrying the caller's
// capacity and resolutions, followed by a zeroed metadata table. The
// returned store is open read/write.
func Create(path string, opts CreateOptions) (*FS, error) {
	if opts.MaxFiles == 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.ThumbWidth == 0 && opts.ThumbHeight == 0 {
		opts.ThumbWidth, opts.ThumbHeight = DefaultThumbRes, DefaultThumbRes
	}
	if opts.SmallWidth == 0 && opts.SmallHeight == 0 {
		opts.SmallWidth, opts.SmallHeight = DefaultSmallRes, DefaultSmallRes
	}

	if opts.ThumbWidth == 0 || opts.ThumbWidth > MaxThumbRes ||
		opts.ThumbHeight == 0 || opts.ThumbHeight > MaxThumbRes {
		return nil, fmt.Errorf("%w: thumbnail %dx%d", ErrResolutions, opts.ThumbWidth, opts.ThumbHeight)
	}
	if opts.SmallWidth == 0 || opts.SmallWidth > MaxSmallRes ||
		opts.SmallHeight == 0 || opts.SmallHeight > MaxSmallRes {
		return nil, fmt.Errorf("%w: small %dx%d", ErrResolutions, opts.SmallWidth, opts.SmallHeight)
	}

	header := Header{
		Name:     StoreLabel,
		MaxFiles: opts.MaxFiles,
		ResizedRes: [4]uint16{
			opts.ThumbWidth, opts.ThumbHeight,
			opts.SmallWidth, opts.SmallHeight,
		},
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrIO, path, err)
	}

	fs := &FS{
		file:     f,
		header:   header,
		metadata: make([]Metadata, header.MaxFiles),
	}
	if err := fs.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	table := make([]byte, int64(header.MaxFiles)*MetadataSize)
	if _, err := f.WriteAt(table, HeaderSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: write metadata table: %v", ErrIO, err)
	}
	return fs, nil
}
