package pager

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
)

// blockCipher is a CBC-mode encrypt/decrypt routine keyed at construction
// time. AES-256 in CBC mode, via the standard library, is the concrete
// instance used here.
type blockCipher interface {
	blockSize() int
	encrypt(dst, src, iv []byte) error
	decrypt(dst, src, iv []byte) error
}

type aesCBC struct {
	block cipher.Block
}

func newAESCBC(key []byte) (blockCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &aesCBC{block: block}, nil
}

func (c *aesCBC) blockSize() int { return c.block.BlockSize() }

// encrypt CBC-encrypts src into dst using iv. No padding is applied: callers
// must always hand in block-aligned input.
func (c *aesCBC) encrypt(dst, src, iv []byte) error {
	if len(src)%c.blockSize() != 0 {
		return errCiphertextLength{want: (len(src) / c.blockSize()) * c.blockSize(), got: len(src)}
	}
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(dst, src)
	return nil
}

func (c *aesCBC) decrypt(dst, src, iv []byte) error {
	if len(src)%c.blockSize() != 0 {
		return errCiphertextLength{want: (len(src) / c.blockSize()) * c.blockSize(), got: len(src)}
	}
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(dst, src)
	return nil
}

// plaintextCipher is the non-encrypted test mode: it performs a copy in
// place of encrypt/decrypt, preserving the same IV-space-then-payload
// layout, so geometry and framing bugs can be isolated from the cipher
// itself. Installed via WithPlaintextCodec.
type plaintextCipher struct {
	size int
}

func (c *plaintextCipher) blockSize() int { return c.size }

func (c *plaintextCipher) encrypt(dst, src, iv []byte) error {
	copy(dst, src)
	return nil
}

func (c *plaintextCipher) decrypt(dst, src, iv []byte) error {
	copy(dst, src)
	return nil
}

// newIV draws ivSz bytes from the cryptographic RNG. A fresh IV is required
// for every page encrypted under the same key.
func newIV(ivSz int) ([]byte, error) {
	iv := make([]byte, ivSz)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	return iv, nil
}
