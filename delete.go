package imgfs

import "fmt"

// Delete removes the image imgID from the store. Only the slot is
// invalidated; the blob bytes stay in place, so other slots aliasing the
// same content remain readable. The slot rewrite lands before the header
// rewrite (version+1, nb_files-1).
func (fs *FS) Delete(imgID string) error {
	if fs.readOnly {
		return fmt.Errorf("%w: store opened read-only", ErrIO)
	}
	if fs.header.NbFiles == 0 {
		return ErrImageNotFound
	}
	index, err := fs.findSlot(imgID)
	if err != nil {
		return err
	}

	fs.metadata[index].IsValid = Empty
	if err := fs.writeSlot(index); err != nil {
		return err
	}

	fs.header.Version++
	fs.header.NbFiles--
	return fs.writeHeader()
}
