package pager

import "io"

// DefaultTransientRetries is how many extra attempts a page read or write
// gets after its first transient failure. Exposed as a tunable constant,
// overridable via WithRetries, rather than a hardcoded literal, since a
// library consumer may want to tune it without forking the package.
const DefaultTransientRetries = 3

// transport performs page-granular I/O against Storage with retry on
// transient failure. Because Storage is accessed positionally
// (ReadAt/WriteAt), there is no seek cursor to track — every call already
// addresses phys(pgno) directly.
type transport struct {
	store   Storage
	g       geometry
	retries int
}

// readPage reads exactly g.pageSz bytes for page pgno into raw. On a
// transient failure before any bytes have been read, it retries up to
// t.retries times before reporting zero bytes read (treated by the caller as
// EOF). If any bytes were read before a later failure, the partial page is
// discarded and zero bytes are reported the same way — the caller treats
// the page as empty and stops. This deliberately favors treating a
// damaged page as absent over surfacing a transport error to a caller mid
// read.
func (t *transport) readPage(pgno int64, raw []byte) (int, error) {
	off := t.g.phys(pgno)
	for attempt := 0; attempt <= t.retries; attempt++ {
		n, err := t.store.ReadAt(raw, off)
		if err == nil {
			return n, nil
		}
		if n > 0 {
			// Partial read followed by an error: discard it, do not retry.
			return 0, nil
		}
		// n == 0: transient failure (or EOF) before any bytes were read —
		// try again, up to t.retries times, then report EOF.
	}
	return 0, nil
}

// writePage writes raw (g.pageSz bytes) to page pgno. The write is
// all-or-nothing: a short write after retries is surfaced as an error.
func (t *transport) writePage(pgno int64, raw []byte) error {
	off := t.g.phys(pgno)
	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		n, err := t.store.WriteAt(raw, off)
		if err == nil && n == len(raw) {
			return nil
		}
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = io.ErrShortWrite
	}
	return lastErr
}

// readFileHeader reads and validates the fixed record at physical offset 0.
// It is only meaningful when g.fileHeaderSz > 0. It returns (false, nil) for
// an empty underlying file — that is not an error, just "no header yet".
func (t *transport) readFileHeader() (fileHeader, bool, error) {
	buf := make([]byte, fileHeaderWireSz)
	n, err := t.store.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return fileHeader{}, false, err
	}
	if n == 0 {
		return fileHeader{}, false, nil
	}
	if n < fileHeaderWireSz {
		return fileHeader{}, false, errHeaderMismatch
	}
	h, err := unmarshalFileHeader(buf)
	if err != nil {
		return fileHeader{}, false, err
	}
	return h, true, nil
}

// writeFileHeader writes a freshly constructed header at physical offset 0.
func (t *transport) writeFileHeader(h fileHeader) error {
	_, err := t.store.WriteAt(h.marshal(), 0)
	return err
}
