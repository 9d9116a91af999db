package imgfs

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// lazilyResize materializes the thumbnail or small variant of slot index:
// the original blob is decoded, scaled to fit the store's configured
// bounds, re-encoded as JPEG and appended to the blob region. Only the slot
// is rewritten; the header (and its version counter) is left untouched
// since variants are derivable data.
func (fs *FS) lazilyResize(resolution int, index uint32) error {
	if fs.readOnly {
		return fmt.Errorf("%w: store opened read-only", ErrIO)
	}
	if resolution < 0 || resolution >= NbRes {
		return ErrResolutions
	}
	if index >= fs.header.MaxFiles || fs.metadata[index].IsValid == Empty {
		return ErrInvalidImgID
	}
	slot := &fs.metadata[index]

	if resolution == OrigRes || slot.Size[resolution] != 0 {
		return nil
	}

	orig, err := fs.readBlob(slot.Offset[OrigRes], slot.Size[OrigRes])
	if err != nil {
		return err
	}

	img, err := imaging.Decode(bytes.NewReader(orig))
	if err != nil {
		return fmt.Errorf("%w: decode original: %v", ErrImgLib, err)
	}
	width := int(fs.header.ResizedRes[2*resolution])
	height := int(fs.header.ResizedRes[2*resolution+1])
	resized := imaging.Fit(img, width, height, imaging.Lanczos)

	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, resized, imaging.JPEG); err != nil {
		return fmt.Errorf("%w: encode variant: %v", ErrImgLib, err)
	}

	offset, err := fs.appendBlob(encoded.Bytes())
	if err != nil {
		return err
	}
	slot.Offset[resolution] = offset
	slot.Size[resolution] = uint32(encoded.Len())
	return fs.writeSlot(index)
}
