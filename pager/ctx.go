// Package pager implements the encrypted block-paging I/O engine: the
// mapping between logical byte ranges and on-disk encrypted pages, the
// per-page header/IV/ciphertext layout, the read-modify-write discipline
// that preserves the "last page determines true logical size" invariant,
// and the seek-past-EOF back-fill protocol.
//
// The engine is single-threaded and not internally synchronized — a Ctx is
// owned by exactly one caller at a time. Callers needing concurrent access
// must wrap a Ctx in their own mutual exclusion.
package pager

import (
	"crypto/aes"
	"io"
)

const (
	keySzAES256 = 32
)

// Option configures a Ctx at construction time.
type Option func(*ctxOptions)

type ctxOptions struct {
	ivSz         int
	blockSz      int
	pageHeaderSz int
	retries      int
	plaintext    bool
	fileHeaderSz int64
	logger       Logger
}

// WithPlaintextCodec swaps in an identity codec (memcpy in place of
// encrypt/decrypt) while preserving the IV-space-then-payload layout. This
// is a non-encrypted test mode, useful for isolating geometry/framing bugs
// from the cipher.
func WithPlaintextCodec() Option {
	return func(o *ctxOptions) { o.plaintext = true }
}

// WithRetries overrides DefaultTransientRetries for this context's
// transport.
func WithRetries(n int) Option {
	return func(o *ctxOptions) { o.retries = n }
}

// WithFileHeader enables the optional fixed-size file header at physical
// offset 0. Without this option, the file header is omitted and the first
// page begins at offset 0.
func WithFileHeader() Option {
	return func(o *ctxOptions) { o.fileHeaderSz = fileHeaderWireSz }
}

// Ctx is per-open-file state: immutable geometry, the caller's key, and the
// mutable runtime state (seek pointer, header-verified flag, scratch
// buffers) needed to page encrypted data through a Storage.
type Ctx struct {
	store Storage
	g     geometry
	codec *codec
	xport *transport

	key   []byte
	flags int

	seekPtr           int64
	headerWritten     bool
	seekPastEndOfFile bool

	rawPage  []byte
	assembly []byte
	scratch  []byte

	log Logger
}

// NewCtx creates a context for paging encrypted data through store, keyed
// by key, with pageSz-byte pages. flags records the caller's requested
// access mode verbatim; the engine itself always treats store as
// read/write.
func NewCtx(store Storage, key []byte, pageSz int, flags int, opts ...Option) (*Ctx, error) {
	o := ctxOptions{
		ivSz:         aes.BlockSize,
		blockSz:      aes.BlockSize,
		pageHeaderSz: aes.BlockSize, // smallest multiple of blockSz >= pageHeaderWireSz(8)
		retries:      DefaultTransientRetries,
		logger:       nopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateGeometry(pageSz, o.ivSz, o.blockSz, o.pageHeaderSz); err != nil {
		return nil, err
	}

	g := geometry{
		pageSz:       pageSz,
		ivSz:         o.ivSz,
		blockSz:      o.blockSz,
		pageHeaderSz: o.pageHeaderSz,
		dataSz:       pageSz - o.ivSz - o.pageHeaderSz,
		fileHeaderSz: o.fileHeaderSz,
	}

	var bc blockCipher
	if o.plaintext {
		bc = &plaintextCipher{size: o.blockSz}
	} else {
		if len(key) != keySzAES256 {
			return nil, errInvalidGeometry("key must be 32 bytes for AES-256-CBC")
		}
		c, err := newAESCBC(key)
		if err != nil {
			return nil, err
		}
		bc = c
	}

	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)

	c := &Ctx{
		store: store,
		g:     g,
		codec: &codec{g: g, cipher: bc},
		xport: &transport{store: store, g: g, retries: o.retries},
		key:   keyCopy,
		flags: flags,

		rawPage:  make([]byte, pageSz),
		assembly: make([]byte, pageSz),
		scratch:  make([]byte, g.pageHeaderSz+g.dataSz),
		log:      o.logger,
	}
	c.log.Debugf("pager: ctx_init page_header_sz=%d data_sz=%d page_sz=%d block_sz=%d iv_sz=%d",
		g.pageHeaderSz, g.dataSz, g.pageSz, g.blockSz, g.ivSz)
	return c, nil
}

// Close zeroes the key and scratch buffers before releasing them. It does
// not close the underlying Storage, which the Ctx never owned.
func (c *Ctx) Close() error {
	zero(c.key)
	zero(c.rawPage)
	zero(c.assembly)
	zero(c.scratch)
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Flags returns the caller's requested access-mode flags, held verbatim.
func (c *Ctx) Flags() int { return c.flags }

// SeekPastEOF reports whether the most recent Read stopped on a page holding
// less valid data than the read's starting point within that page. Seek does
// not update it, and a Read that starts beyond the last page on disk leaves
// it false.
func (c *Ctx) SeekPastEOF() bool { return c.seekPastEndOfFile }

// PageSize returns the on-disk page size this context was configured with.
func (c *Ctx) PageSize() int { return c.g.pageSz }

// DataSize returns the plaintext payload capacity of a single page.
func (c *Ctx) DataSize() int { return c.g.dataSz }

// diskPages returns the number of whole pages currently present on disk.
func (c *Ctx) diskPages() (int64, error) {
	n, err := c.store.Len()
	if err != nil {
		return 0, err
	}
	return c.g.pageCountOnDisk(n), nil
}

// Size returns the true logical size of the file: the last present page's
// data_sz_used plus the full width of every page before it. Returns 0 for
// an empty file.
func (c *Ctx) Size() (int64, error) {
	disk, err := c.diskPages()
	if err != nil {
		return -1, err
	}
	if disk == 0 {
		return 0, nil
	}
	n, err := c.xport.readPage(disk-1, c.rawPage)
	if err != nil {
		return -1, err
	}
	if n == 0 {
		return -1, nil
	}
	_, used, err := c.codec.decode(c.rawPage, c.scratch)
	if err != nil {
		return -1, err
	}
	return (disk-1)*int64(c.g.dataSz) + int64(used), nil
}

// Seek repositions the logical seek pointer. Targets beyond end-of-file are
// permitted — the next write will back-fill, the next read will return 0
// bytes. If whence is io.SeekEnd and Size fails, the current seek pointer is
// left unchanged and the error is returned so callers that want to notice,
// can.
func (c *Ctx) Seek(offset int64, whence int) (int64, error) {
	c.log.Debugf("pager: seek offset=%d whence=%d", offset, whence)
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = c.seekPtr + offset
	case io.SeekEnd:
		sz, err := c.Size()
		if err != nil || sz < 0 {
			return c.seekPtr, err
		}
		target = sz + offset
	default:
		return c.seekPtr, errBadWhence
	}
	c.seekPtr = target
	return c.seekPtr, nil
}

// Truncate discards any trailing content at or after the page containing
// to_offset, by truncating the backing file at the start of that page. This
// is page-granular, not byte-exact. Callers needing exact-byte truncation
// must follow up with a write.
func (c *Ctx) Truncate(to_offset int64) error {
	at := c.g.phys(c.g.pageOf(to_offset))
	return c.store.Truncate(at)
}
