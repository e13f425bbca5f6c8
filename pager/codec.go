package pager

// codec encodes and decodes a single page: IV generation, header framing,
// CBC encrypt/decrypt, and magic/length validation.
type codec struct {
	g      geometry
	cipher blockCipher
}

// encode builds a raw on-disk page (iv || ciphertext) from n bytes of
// plaintext. scratch must be pageHeaderSz+dataSz bytes and is clobbered.
// raw must be g.pageSz bytes and receives the result.
func (c *codec) encode(raw, scratch, plaintext []byte, n int) error {
	if n > c.g.dataSz {
		return errPayloadTooLarge{dataSz: c.g.dataSz, n: n}
	}
	hdr := pageHeader{magic: pageMagic, dataSzUsed: uint32(n)}
	copy(scratch, hdr.marshal(c.g.pageHeaderSz))
	payload := scratch[c.g.pageHeaderSz:]
	copy(payload, plaintext[:n])
	for i := n; i < c.g.dataSz; i++ {
		payload[i] = 0
	}

	iv, err := newIV(c.g.ivSz)
	if err != nil {
		return err
	}
	copy(raw[:c.g.ivSz], iv)

	ciphertext := raw[c.g.ivSz:]
	wantLen := c.g.pageHeaderSz + c.g.dataSz
	if len(ciphertext) != wantLen || len(scratch) != wantLen {
		return errCiphertextLength{want: wantLen, got: len(ciphertext)}
	}
	return c.cipher.encrypt(ciphertext, scratch, iv)
}

// decode recovers the plaintext payload and its valid length from a raw
// on-disk page. scratch must be pageHeaderSz+dataSz bytes; the returned
// slice is a view into it, valid until the next decode call reusing the
// same scratch buffer.
//
// A magic mismatch or an out-of-range dataSzUsed is not an error — the page
// is reported as empty, matching a newly-allocated or over-extended region.
func (c *codec) decode(raw, scratch []byte) ([]byte, int, error) {
	iv := raw[:c.g.ivSz]
	ciphertext := raw[c.g.ivSz:]
	if err := c.cipher.decrypt(scratch, ciphertext, iv); err != nil {
		return nil, 0, err
	}

	hdr := unmarshalPageHeader(scratch[:pageHeaderWireSz])
	if hdr.magic != pageMagic || hdr.dataSzUsed > uint32(c.g.dataSz) {
		return scratch[c.g.pageHeaderSz:c.g.pageHeaderSz], 0, nil
	}
	n := int(hdr.dataSzUsed)
	return scratch[c.g.pageHeaderSz : c.g.pageHeaderSz+n], n, nil
}
