package pager

// Read decodes pages in ascending order starting at the page containing the
// current seek pointer, copying out the overlap between what the caller
// asked for and what is actually valid on each page, and stopping the
// instant a page has less valid data than where the read begins (EOF).
//
// Read never returns an error for EOF — 0 is a valid result at or past end
// of file. It returns -1 only when the storage length cannot be read or
// verifying the file header fails on a read starting at offset 0.
func (c *Ctx) Read(buf []byte) (int, error) {
	disk, err := c.diskPages()
	if err != nil {
		return -1, err
	}

	if c.seekPtr == 0 && disk >= 1 {
		if err := c.ensureHeaderForRead(); err != nil {
			return -1, err
		}
	}

	n := len(buf)
	startPage := c.g.pageOf(c.seekPtr)
	startIntra := c.g.intra(c.seekPtr)
	pagesToRead := c.g.pagesForLen(int64(n) + startIntra)

	limit := pagesToRead
	if disk-startPage < limit {
		limit = disk - startPage
	}

	c.seekPastEndOfFile = false
	total := 0
	remaining := n
	intraCur := startIntra
	for i := int64(0); i < limit; i++ {
		nread, err := c.xport.readPage(startPage+i, c.rawPage)
		if err != nil || nread == 0 {
			break
		}
		plaintext, avail, err := c.codec.decode(c.rawPage, c.assembly)
		if err != nil {
			break
		}

		wantWithinPage := remaining
		if capOnPage := c.g.dataSz - int(intraCur); wantWithinPage > capOnPage {
			wantWithinPage = capOnPage
		}
		upper := wantWithinPage + int(intraCur)
		if upper > avail {
			upper = avail
		}
		if upper <= int(intraCur) {
			c.seekPastEndOfFile = true
			break
		}

		got := upper - int(intraCur)
		copy(buf[total:total+got], plaintext[intraCur:upper])
		total += got
		remaining -= got
		c.seekPtr += int64(got)
		intraCur = 0
		if remaining == 0 {
			break
		}
	}
	return total, nil
}
