package imgfs

import (
	"fmt"
)

// CheckResult contains the results of a store consistency check.
type CheckResult struct {
	// ValidSlots is the number of NON_EMPTY slots found.
	ValidSlots uint32

	// BlobEnd is the end of the highest referenced blob, in bytes.
	BlobEnd uint64

	// Errors describes every invariant violation found.
	Errors []string
}

// IsClean returns true if no violations were found.
func (r *CheckResult) IsClean() bool {
	return len(r.Errors) == 0
}

// Check verifies the store's structural invariants without mutating it:
// the header count matches the slot table, every valid slot has an
// original blob, per-resolution size and offset are zero or nonzero
// together, every referenced blob lies between the slot table and the end
// of the file, identifiers are unique, and slots sharing a content hash
// alias the same original blob.
func (fs *FS) Check() (*CheckResult, error) {
	info, err := fs.file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat: %v", ErrIO, err)
	}
	fileSize := uint64(info.Size())
	blobStart := uint64(slotOffset(fs.header.MaxFiles))

	result := &CheckResult{}
	report := func(format string, args ...interface{}) {
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	seenIDs := make(map[string]uint32)
	for i := range fs.metadata {
		slot := &fs.metadata[i]
		if slot.IsValid != NonEmpty {
			continue
		}
		result.ValidSlots++

		if prev, dup := seenIDs[slot.ImgID]; dup {
			report("slots %d and %d share img_id %q", prev, i, slot.ImgID)
		}
		seenIDs[slot.ImgID] = uint32(i)

		if slot.Offset[OrigRes] == 0 || slot.Size[OrigRes] == 0 {
			report("slot %d (%s): original blob missing", i, slot.ImgID)
		}
		for r := 0; r < NbRes; r++ {
			if (slot.Size[r] == 0) != (slot.Offset[r] == 0) {
				report("slot %d (%s): resolution %d has size %d but offset %d",
					i, slot.ImgID, r, slot.Size[r], slot.Offset[r])
			}
			if slot.Offset[r] == 0 {
				continue
			}
			end := slot.Offset[r] + uint64(slot.Size[r])
			if slot.Offset[r] < blobStart || end > fileSize {
				report("slot %d (%s): resolution %d blob [%d,%d) outside blob region [%d,%d)",
					i, slot.ImgID, r, slot.Offset[r], end, blobStart, fileSize)
			}
			if end > result.BlobEnd {
				result.BlobEnd = end
			}
		}

		// aliases must share the original blob; thumb/small variants may
		// diverge because lazy materialization updates one slot at a time
		for j := 0; j < i; j++ {
			other := &fs.metadata[j]
			if other.IsValid != NonEmpty || other.SHA != slot.SHA {
				continue
			}
			if other.Offset[OrigRes] != slot.Offset[OrigRes] || other.Size[OrigRes] != slot.Size[OrigRes] {
				report("slots %d and %d share content but not the original blob", j, i)
			}
		}
	}

	if result.ValidSlots != fs.header.NbFiles {
		report("header nb_files %d but %d valid slots", fs.header.NbFiles, result.ValidSlots)
	}
	return result, nil
}
