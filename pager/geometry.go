package pager

// geometry holds the immutable per-context sizing derived at NewCtx time.
// All functions here are pure — they never consult the seek pointer, which
// stays the orchestrator's job.
type geometry struct {
	pageSz       int
	ivSz         int
	blockSz      int
	pageHeaderSz int
	dataSz       int
	fileHeaderSz int64
}

// pageOf returns the logical-to-page index for a logical byte offset.
func (g geometry) pageOf(off int64) int64 {
	return off / int64(g.dataSz)
}

// intra returns the byte offset within a page for a logical byte offset.
func (g geometry) intra(off int64) int64 {
	return off % int64(g.dataSz)
}

// pagesForLen returns the number of pages needed to hold n plaintext bytes.
func (g geometry) pagesForLen(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return (n + int64(g.dataSz) - 1) / int64(g.dataSz)
}

// phys returns the physical file offset of page pgno.
func (g geometry) phys(pgno int64) int64 {
	return g.fileHeaderSz + pgno*int64(g.pageSz)
}

// pageCountOnDisk returns how many whole pages are present given the
// underlying file's total length in bytes. A short trailing partial page is
// ignored (it is a corruption indicator, not a valid page).
func (g geometry) pageCountOnDisk(fileLen int64) int64 {
	n := fileLen - g.fileHeaderSz
	if n <= 0 {
		return 0
	}
	return n / int64(g.pageSz)
}

// validateGeometry checks the geometry constraints from the data model: page_sz,
// iv_sz, block_sz, and page_header_sz must each be positive multiples of
// block_sz, and the resulting data_sz must be positive.
func validateGeometry(pageSz, ivSz, blockSz, pageHeaderSz int) error {
	if blockSz <= 0 {
		return errInvalidGeometry("block size must be positive")
	}
	if pageSz <= 0 || pageSz%blockSz != 0 {
		return errInvalidGeometry("page size must be a positive multiple of the cipher block size")
	}
	if ivSz <= 0 || ivSz%blockSz != 0 {
		return errInvalidGeometry("iv size must be a positive multiple of the cipher block size")
	}
	if pageHeaderSz <= 0 || pageHeaderSz%blockSz != 0 {
		return errInvalidGeometry("page header size must be a positive multiple of the cipher block size")
	}
	dataSz := pageSz - ivSz - pageHeaderSz
	if dataSz <= 0 {
		return errInvalidGeometry("page size too small to hold an iv, a page header, and any data")
	}
	return nil
}
