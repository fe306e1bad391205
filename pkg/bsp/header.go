package bsp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the on-disk size of Header.
const HeaderSize = 4 + 4 + HeaderLumps*16 + 4

// Lump is one entry of the header's lump directory.
type Lump struct {
	Offset  int32
	Length  int32
	Version int32
	FourCC  [4]byte
}

// Header is the fixed-size block at the start of every VBSP file.
type Header struct {
	Ident       int32
	Version     int32
	Lumps       [HeaderLumps]Lump
	MapRevision int32
}

// LumpInfo describes a non-empty lump for listings.
type LumpInfo struct {
	ID      int
	Name    string
	Offset  int32
	Length  int32
	Version int32
}

// ReadHeader reads and validates the header at the start of r.
func ReadHeader(r io.ReaderAt) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if n, err := r.ReadAt(buf, 0); n < HeaderSize {
		return nil, fmt.Errorf("%w: got %d of %d bytes: %v", ErrTruncatedHeader, n, HeaderSize, err)
	}

	var h Header
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}
	if h.Ident != Ident {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, buf[:4])
	}
	return &h, nil
}

// LumpInfo lists the non-empty lumps in directory order.
func (h *Header) LumpInfo() []LumpInfo {
	var out []LumpInfo
	for id, l := range h.Lumps {
		if l.Length == 0 {
			continue
		}
		out = append(out, LumpInfo{
			ID:      id,
			Name:    LumpName(id),
			Offset:  l.Offset,
			Length:  l.Length,
			Version: l.Version,
		})
	}
	return out
}

// readLump returns the raw bytes of lump id.
func (h *Header) readLump(r io.ReaderAt, id int) ([]byte, error) {
	l := h.Lumps[id]
	if l.Length <= 0 {
		return nil, nil
	}
	buf := make([]byte, l.Length)
	if n, err := r.ReadAt(buf, int64(l.Offset)); n < len(buf) {
		return nil, fmt.Errorf("%w: %s: got %d of %d bytes at offset %d: %v",
			ErrTruncatedLump, LumpName(id), n, l.Length, l.Offset, err)
	}
	return buf, nil
}
