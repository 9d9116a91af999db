package imgfs

// Read returns the bytes of imgID at the requested resolution. Thumbnail
// and small variants that have never been materialized are produced on the
// spot via lazilyResize before being served.
func (fs *FS) Read(imgID string, resolution int) ([]byte, error) {
	if resolution < 0 || resolution >= NbRes {
		return nil, ErrResolutions
	}
	index, err := fs.findSlot(imgID)
	if err != nil {
		return nil, err
	}
	slot := &fs.metadata[index]

	if resolution != OrigRes && (slot.Size[resolution] == 0 || slot.Offset[resolution] == 0) {
		if err := fs.lazilyResize(resolution, index); err != nil {
			return nil, err
		}
	}
	return fs.readBlob(slot.Offset[resolution], slot.Size[resolution])
}
