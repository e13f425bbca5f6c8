package pager

// ensureHeaderForRead verifies the file header the first time a read starts
// at offset 0 against a non-empty file. A present header's page size must
// match this context's configured page size, or every page offset computed
// from here on would be wrong.
func (c *Ctx) ensureHeaderForRead() error {
	if c.g.fileHeaderSz == 0 || c.headerWritten {
		return nil
	}
	h, present, err := c.xport.readFileHeader()
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	if err := c.checkHeaderGeometry(h); err != nil {
		return err
	}
	c.headerWritten = true
	return nil
}

// ensureHeaderForWrite materializes the file header lazily on first write:
// if a read first finds nothing, the write seeks to offset 0 and writes a
// freshly-constructed header. If a header is already present, its page size
// is checked against this context's configured page size.
func (c *Ctx) ensureHeaderForWrite() error {
	if c.g.fileHeaderSz == 0 || c.headerWritten {
		return nil
	}
	h, present, err := c.xport.readFileHeader()
	if err != nil {
		return err
	}
	if present {
		if err := c.checkHeaderGeometry(h); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	newHeader := fileHeader{
		magic:    fileMagic,
		version:  fileVersion,
		cipherID: cipherAES256CBC,
		pageSize: uint32(c.g.pageSz),
	}
	if err := c.xport.writeFileHeader(newHeader); err != nil {
		return err
	}
	c.headerWritten = true
	return nil
}

// checkHeaderGeometry rejects a file header whose stored page size does not
// match this context's configured page size — opening it would silently
// misinterpret every subsequent page offset.
func (c *Ctx) checkHeaderGeometry(h fileHeader) error {
	if h.pageSize != uint32(c.g.pageSz) {
		return errPageSizeMismatch{want: uint32(c.g.pageSz), got: h.pageSize}
	}
	return nil
}
