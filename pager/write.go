package pager

// Write lazily materializes the file header, sparse back-fills any gap
// between the current end of file and a seek target past it, and then does
// read-modify-write on each touched page in ascending order so a partial
// overwrite never shrinks a page's previously-valid tail.
//
// Write returns -1 only when the lazy file-header write fails or the
// storage length cannot be read. Any later page-write failure stops the loop and returns the count of plaintext
// bytes already accepted, together with the error that stopped it.
func (c *Ctx) Write(buf []byte) (int, error) {
	if err := c.ensureHeaderForWrite(); err != nil {
		return -1, err
	}

	disk, err := c.diskPages()
	if err != nil {
		return -1, err
	}

	n := len(buf)
	startPage := c.g.pageOf(c.seekPtr)
	startIntra := c.g.intra(c.seekPtr)
	pagesToWrite := c.g.pagesForLen(int64(n) + startIntra)

	// A target on page disk still needs the previous last page sealed, or
	// the bytes between its old end and the page boundary would be lost.
	if startPage > disk || (startPage == disk && disk > 0) {
		if err := c.backfill(disk, startPage); err != nil {
			return 0, err
		}
		disk = startPage
	}

	total := 0
	remaining := n
	intraCur := startIntra
	for i := int64(0); i < pagesToWrite; i++ {
		pgno := startPage + i
		capOnPage := c.g.dataSz - int(intraCur)
		toCopy := remaining
		if toCopy > capOnPage {
			toCopy = capOnPage
		}

		existingUsed := c.loadExisting(pgno, disk)
		copy(c.assembly[intraCur:intraCur+int64(toCopy)], buf[total:total+toCopy])

		newLen := int(intraCur) + toCopy
		if existingUsed > newLen {
			newLen = existingUsed
		}

		if err := c.codec.encode(c.rawPage, c.scratch, c.assembly, newLen); err != nil {
			return total, err
		}
		if err := c.xport.writePage(pgno, c.rawPage); err != nil {
			return total, err
		}
		if pgno >= disk {
			disk = pgno + 1
		}

		total += toCopy
		remaining -= toCopy
		c.seekPtr += int64(toCopy)
		intraCur = 0
	}
	return total, nil
}

// loadExisting zero-fills c.assembly and, if pgno is already present on
// disk, overlays its decoded plaintext. It returns the page's existing
// data_sz_used (0 if the page does not yet exist or decodes as empty).
func (c *Ctx) loadExisting(pgno, disk int64) int {
	for i := 0; i < c.g.dataSz; i++ {
		c.assembly[i] = 0
	}
	if pgno >= disk {
		return 0
	}
	nread, err := c.xport.readPage(pgno, c.rawPage)
	if err != nil || nread == 0 {
		return 0
	}
	plaintext, used, err := c.codec.decode(c.rawPage, c.scratch)
	if err != nil {
		return 0
	}
	copy(c.assembly[:used], plaintext)
	return used
}

// backfill materializes the gap between the current end of file (disk
// pages present) and startPage:
//  1. seal the previous last page to full width (data_sz_used = data_sz)
//     if it is not full already, since it is no longer the logical last
//     page once the gap exists,
//  2. write an all-zero full-width page for every index from disk up to
//     (but not including) startPage.
//
// startPage itself is left untouched — the caller's normal write loop lands
// on it next and gives it whatever partial data_sz_used the actual write
// produces, preserving "only the true last page may be partial".
func (c *Ctx) backfill(disk, startPage int64) error {
	if disk > 0 {
		if used := c.loadExisting(disk-1, disk); used < c.g.dataSz {
			if err := c.codec.encode(c.rawPage, c.scratch, c.assembly, c.g.dataSz); err != nil {
				return err
			}
			if err := c.xport.writePage(disk-1, c.rawPage); err != nil {
				return err
			}
		}
	}

	for i := disk; i < startPage; i++ {
		for j := 0; j < c.g.dataSz; j++ {
			c.assembly[j] = 0
		}
		if err := c.codec.encode(c.rawPage, c.scratch, c.assembly, c.g.dataSz); err != nil {
			return err
		}
		if err := c.xport.writePage(i, c.rawPage); err != nil {
			return err
		}
	}
	return nil
}
