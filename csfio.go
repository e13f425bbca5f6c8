// Package csfio wraps the encrypted block-paging engine in pager as a
// friendlier façade implementing the standard io.ReadWriteSeeker and
// io.Closer interfaces, for callers that want ordinary Go I/O composition
// (io.Copy, bufio, etc) instead of the raw Ctx surface.
package csfio

import (
	"io"

	"github.com/zeteticio/csfio/pager"
)

// File is a random-access, transparently-encrypted file backed by
// pager.Ctx. It satisfies io.ReadWriteSeeker and io.Closer.
type File struct {
	ctx *pager.Ctx
}

// Open wraps store as an encrypted File keyed by key, using pageSz-byte
// on-disk pages. store is never closed by File — ownership remains with
// the caller.
func Open(store pager.Storage, key []byte, pageSz int, flags int, opts ...pager.Option) (*File, error) {
	ctx, err := pager.NewCtx(store, key, pageSz, flags, opts...)
	if err != nil {
		return nil, err
	}
	return &File{ctx: ctx}, nil
}

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.ctx.Read(p)
	if n < 0 {
		n = 0
	}
	if err != nil {
		return n, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	n, err := f.ctx.Write(p)
	if n < 0 {
		n = 0
	}
	return n, err
}

// Seek implements io.Seeker.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.ctx.Seek(offset, whence)
}

// Truncate discards any trailing content at or after the page containing
// offset — see pager.Ctx.Truncate for the page-granular caveat.
func (f *File) Truncate(offset int64) error {
	return f.ctx.Truncate(offset)
}

// Size returns the file's true logical size.
func (f *File) Size() (int64, error) {
	return f.ctx.Size()
}

// Close zeroes the key and scratch buffers. The backing Storage is left
// open; the caller owns it.
func (f *File) Close() error {
	return f.ctx.Close()
}
