package pager

import "encoding/binary"

// Wire constants for the on-disk format: the file header's magic, version,
// and cipher id, and the page header's magic.
const (
	fileMagic   uint32 = 0x4249545A
	fileVersion uint32 = 0x00001001
	cipherAES256CBC uint32 = 0x00AE5256
	pageMagic   uint32 = 0xCAFEBABE
)

// fileHeaderWireSz is the on-disk size of the file header record: four
// big-endian uint32 fields.
const fileHeaderWireSz = 16

// fileHeader is the fixed-size record at physical offset 0, present iff
// the context's geometry.fileHeaderSz > 0.
type fileHeader struct {
	magic    uint32
	version  uint32
	cipherID uint32
	pageSize uint32
}

func (h fileHeader) marshal() []byte {
	buf := make([]byte, fileHeaderWireSz)
	binary.BigEndian.PutUint32(buf[0:4], h.magic)
	binary.BigEndian.PutUint32(buf[4:8], h.version)
	binary.BigEndian.PutUint32(buf[8:12], h.cipherID)
	binary.BigEndian.PutUint32(buf[12:16], h.pageSize)
	return buf
}

func unmarshalFileHeader(buf []byte) (fileHeader, error) {
	if len(buf) < fileHeaderWireSz {
		return fileHeader{}, errHeaderMismatch
	}
	h := fileHeader{
		magic:    binary.BigEndian.Uint32(buf[0:4]),
		version:  binary.BigEndian.Uint32(buf[4:8]),
		cipherID: binary.BigEndian.Uint32(buf[8:12]),
		pageSize: binary.BigEndian.Uint32(buf[12:16]),
	}
	if h.magic != fileMagic {
		return fileHeader{}, errHeaderMismatch
	}
	return h, nil
}

// pageHeaderWireSz is the on-disk size of the plaintext page header record
// before it is zero-padded up to geometry.pageHeaderSz: magic (4) +
// dataSzUsed (4).
const pageHeaderWireSz = 8

// pageHeader is the plaintext record placed at the start of a page's
// encrypted payload, ahead of its data bytes.
type pageHeader struct {
	magic      uint32
	dataSzUsed uint32
}

func (h pageHeader) marshal(pageHeaderSz int) []byte {
	buf := make([]byte, pageHeaderSz)
	binary.BigEndian.PutUint32(buf[0:4], h.magic)
	binary.BigEndian.PutUint32(buf[4:8], h.dataSzUsed)
	return buf
}

// unmarshalPageHeader parses the header at the front of a decrypted page
// buffer. It never returns an error: an unrecognized magic or an
// out-of-range dataSzUsed is reported by the caller treating the page as
// empty.
func unmarshalPageHeader(buf []byte) pageHeader {
	return pageHeader{
		magic:      binary.BigEndian.Uint32(buf[0:4]),
		dataSzUsed: binary.BigEndian.Uint32(buf[4:8]),
	}
}
