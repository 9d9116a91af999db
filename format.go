// Package imgfs implements a single-file content-addressed store for JPEG
// images. One backing file holds a fixed header, a table of metadata slots,
// and an append-only blob region; each image is kept at its original
// resolution and at lazily materialized thumbnail/small variants.
package imgfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Resolution indices into the per-slot size/offset triples.
const (
	ThumbRes = 0
	SmallRes = 1
	OrigRes  = 2
	NbRes    = 3
)

// Slot validity markers.
const (
	Empty    = 0
	NonEmpty = 1
)

// On-disk layout constants. All integers are stored little-endian, packed
// at the offsets documented below; the layout never depends on host struct
// alignment.
const (
	// NameLength is the size of the fixed header name field, including
	// NUL padding.
	NameLength = 32

	// MaxImgID is the maximum length of an image identifier. The on-disk
	// field holds MaxImgID bytes plus a terminating NUL.
	MaxImgID = 127

	// SHALength is the size of a SHA-256 digest.
	SHALength = 32

	// HeaderSize is the size of the header record at offset 0:
	//   0   32  name (NUL-padded)
	//   32   4  version
	//   36   4  nb_files
	//   40   4  max_files
	//   44   8  resized_res (4 x uint16: thumb_w, thumb_h, small_w, small_h)
	//   52   4  unused_32
	//   56   8  unused_64
	HeaderSize = 64

	// MetadataSize is the size of one metadata slot:
	//   0   128  img_id (NUL-terminated)
	//   128  32  sha
	//   160   8  orig_res (uint32 width, uint32 height)
	//   168  12  size (3 x uint32)
	//   180  24  offset (3 x uint64)
	//   204   2  is_valid
	//   206   2  unused_16
	MetadataSize = 208
)

// StoreLabel is the fixed name written into the header at creation.
const StoreLabel = "ImgFS image store"

// Header is the fixed record at the start of every store file.
type Header struct {
	Name       string
	Version    uint32
	NbFiles    uint32
	MaxFiles   uint32
	ResizedRes [2 * (NbRes - 1)]uint16
}

// Metadata is one slot of the metadata table.
type Metadata struct {
	ImgID   string
	SHA     [SHALength]byte
	OrigRes [2]uint32
	Size    [NbRes]uint32
	Offset  [NbRes]uint64
	IsValid uint16
}

// slotOffset returns the absolute file offset of slot index.
func slotOffset(index uint32) int64 {
	return HeaderSize + int64(index)*MetadataSize
}

// Encode serializes the header into a HeaderSize-byte record.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:NameLength], h.Name)
	binary.LittleEndian.PutUint32(buf[32:36], h.Version)
	binary.LittleEndian.PutUint32(buf[36:40], h.NbFiles)
	binary.LittleEndian.PutUint32(buf[40:44], h.MaxFiles)
	for i, r := range h.ResizedRes {
		binary.LittleEndian.PutUint16(buf[44+2*i:46+2*i], r)
	}
	// unused_32 and unused_64 stay zero
	return buf
}

// ParseHeader decodes a header record.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: header too short: %d bytes", ErrIO, len(data))
	}
	h := &Header{
		Name:     cString(data[0:NameLength]),
		Version:  binary.LittleEndian.Uint32(data[32:36]),
		NbFiles:  binary.LittleEndian.Uint32(data[36:40]),
		MaxFiles: binary.LittleEndian.Uint32(data[40:44]),
	}
	for i := range h.ResizedRes {
		h.ResizedRes[i] = binary.LittleEndian.Uint16(data[44+2*i : 46+2*i])
	}
	return h, nil
}

// Validate checks the structural fields set at creation time.
func (h *Header) Validate() error {
	if h.MaxFiles == 0 {
		return fmt.Errorf("%w: header has zero max_files", ErrIO)
	}
	for i, r := range h.ResizedRes {
		if r == 0 {
			return fmt.Errorf("%w: header resized_res[%d] is zero", ErrIO, i)
		}
	}
	if h.NbFiles > h.MaxFiles {
		return fmt.Errorf("%w: header nb_files %d exceeds max_files %d", ErrIO, h.NbFiles, h.MaxFiles)
	}
	return nil
}

// Encode serializes a metadata slot into a MetadataSize-byte record.
func (m *Metadata) Encode() []byte {
	buf := make([]byte, MetadataSize)
	copy(buf[0:MaxImgID+1], m.ImgID)
	copy(buf[128:160], m.SHA[:])
	binary.LittleEndian.PutUint32(buf[160:164], m.OrigRes[0])
	binary.LittleEndian.PutUint32(buf[164:168], m.OrigRes[1])
	for i, s := range m.Size {
		binary.LittleEndian.PutUint32(buf[168+4*i:172+4*i], s)
	}
	for i, o := range m.Offset {
		binary.LittleEndian.PutUint64(buf[180+8*i:188+8*i], o)
	}
	binary.LittleEndian.PutUint16(buf[204:206], m.IsValid)
	return buf
}

// ParseMetadata decodes one metadata slot.
func ParseMetadata(data []byte) (*Metadata, error) {
	if len(data) < MetadataSize {
		return nil, fmt.Errorf("%w: metadata record too short: %d bytes", ErrIO, len(data))
	}
	m := &Metadata{
		ImgID: cString(data[0 : MaxImgID+1]),
		OrigRes: [2]uint32{
			binary.LittleEndian.Uint32(data[160:164]),
			binary.LittleEndian.Uint32(data[164:168]),
		},
		IsValid: binary.LittleEndian.Uint16(data[204:206]),
	}
	copy(m.SHA[:], data[128:160])
	for i := range m.Size {
		m.Size[i] = binary.LittleEndian.Uint32(data[168+4*i : 172+4*i])
	}
	for i := range m.Offset {
		m.Offset[i] = binary.LittleEndian.Uint64(data[180+8*i : 188+8*i])
	}
	return m, nil
}

// cString returns the bytes up to the first NUL as a string.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// String formats the header the way the list command prints it.
func (h *Header) String() string {
	return fmt.Sprintf("*****************************************\n"+
		"********** IMGFS HEADER START ***********\n"+
		"TYPE: %s\nVERSION: %d\nIMAGE COUNT: %d\t\tMAX IMAGES: %d\n"+
		"THUMBNAIL: %d x %d\tSMALL: %d x %d\n"+
		"*********** IMGFS HEADER END ************\n"+
		"*****************************************\n",
		h.Name, h.Version, h.NbFiles, h.MaxFiles,
		h.ResizedRes[0], h.ResizedRes[1], h.ResizedRes[2], h.ResizedRes[3])
}

// String formats one slot the way the list command prints it.
func (m *Metadata) String() string {
	return fmt.Sprintf("IMAGE ID: %s\nSHA: %x\nVALID: %d\n"+
		"OFFSET ORIG. : %d\t\tSIZE ORIG. : %d\n"+
		"OFFSET THUMB.: %d\t\tSIZE THUMB.: %d\n"+
		"OFFSET SMALL : %d\t\tSIZE SMALL : %d\n"+
		"ORIGINAL: %d x %d\n"+
		"*****************************************\n",
		m.ImgID, m.SHA, m.IsValid,
		m.Offset[OrigRes], m.Size[OrigRes],
		m.Offset[ThumbRes], m.Size[ThumbRes],
		m.Offset[SmallRes], m.Size[SmallRes],
		m.OrigRes[0], m.OrigRes[1])
}

// ResolutionAtoi maps a resolution name to its index, or -1 if the name is
// not one of thumb/thumbnail/small/orig/original.
func ResolutionAtoi(s string) int {
	switch s {
	case "thumb", "thumbnail":
		return ThumbRes
	case "small":
		return SmallRes
	case "orig", "original":
		return OrigRes
	default:
		return -1
	}
}
