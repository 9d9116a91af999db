package imgfs

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image/jpeg"
)

// Insert stores a JPEG image under imgID. The image bytes are hashed and
// deduplicated against existing slots: identical content shares blobs,
// identical identifiers are rejected. On success the header (nb_files,
// version) and the slot are durable on disk.
func (fs *FS) Insert(buf []byte, imgID string) error {
	if fs.readOnly {
		return fmt.Errorf("%w: store opened read-only", ErrIO)
	}
	if len(imgID) == 0 || len(imgID) > MaxImgID {
		return fmt.Errorf("%w: %q", ErrInvalidImgID, imgID)
	}
	if fs.header.NbFiles >= fs.header.MaxFiles {
		return ErrImgFSFull
	}

	index := uint32(0)
	found := false
	for i := range fs.metadata {
		if fs.metadata[i].IsValid == Empty {
			index = uint32(i)
			found = true
			break
		}
	}
	if !found {
		return ErrImgFSFull
	}
	slot := &fs.metadata[index]

	slot.SHA = sha256.Sum256(buf)
	slot.ImgID = imgID

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("%w: decode image header: %v", ErrImgLib, err)
	}
	slot.OrigRes[0] = uint32(cfg.Width)
	slot.OrigRes[1] = uint32(cfg.Height)

	if err := fs.dedup(index); err != nil {
		return err
	}

	if slot.Offset[OrigRes] == 0 {
		offset, err := fs.appendBlob(buf)
		if err != nil {
			return err
		}
		slot.Offset = [NbRes]uint64{OrigRes: offset}
		slot.Size = [NbRes]uint32{OrigRes: uint32(len(buf))}
	}

	slot.IsValid = NonEmpty
	fs.header.NbFiles++
	fs.header.Version++

	if err := fs.writeHeader(); err != nil {
		return err
	}
	return fs.writeSlot(index)
}
