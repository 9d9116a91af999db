package imgfs

import "fmt"

// dedup scans every valid slot other than index. A matching identifier is
// an error; matching content makes the target slot alias the existing
// blobs (all three offset/size pairs). Without a content match the target's
// original offset is cleared so the caller appends a fresh blob.
func (fs *FS) dedup(index uint32) error {
	if index >= fs.header.MaxFiles {
		return ErrImageNotFound
	}
	target := &fs.metadata[index]

	foundDuplicate := false
	for i := range fs.metadata {
		slot := &fs.metadata[i]
		if uint32(i) == index || slot.IsValid != NonEmpty {
			continue
		}
		if slot.ImgID == target.ImgID {
			return fmt.Errorf("%w: %q", ErrDuplicateID, target.ImgID)
		}
		if slot.SHA == target.SHA {
			foundDuplicate = true
			target.Offset = slot.Offset
			target.Size = slot.Size
		}
	}

	if !foundDuplicate {
		target.Offset[OrigRes] = 0
	}
	return nil
}
