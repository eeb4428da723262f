package vectorindex

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
)

// Container layout, little endian:
//
//	magic   [4]byte "DRAG"
//	version uint16
//	dim     uint32
//	count   uint32
//	vectors float32[count*dim]
//	ids     count x (uint32 length, bytes)
//	crc32   uint32 over everything above
const (
	containerMagic   = "DRAG"
	containerVersion = uint16(1)
	headerSize       = 4 + 2 + 4 + 4
	trailerSize      = 4
)

// Artifact pairs a flat index with its id map. Position i of IDs names the
// document whose vector sits at position i of Index.
type Artifact struct {
	Index *FlatL2
	IDs   []string
}

// NewArtifact builds an artifact from parallel ids and vectors.
// The dimensionality is taken from the first vector.
func NewArtifact(ids []string, vectors [][]float32) (*Artifact, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("vectorindex: %d ids for %d vectors", len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("vectorindex: no vectors")
	}
	idx, err := NewFlatL2(len(vectors[0]))
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors...); err != nil {
		return nil, err
	}
	return &Artifact{Index: idx, IDs: append([]string(nil), ids...)}, nil
}

// ID returns the id at position pos, rejecting positions outside [0, N).
func (a *Artifact) ID(pos int) (string, bool) {
	if pos < 0 || pos >= len(a.IDs) {
		return "", false
	}
	return a.IDs[pos], true
}

// MarshalBinary encodes the artifact as a single checksummed container.
func (a *Artifact) MarshalBinary() ([]byte, error) {
	if a.Index == nil {
		return nil, fmt.Errorf("vectorindex: artifact has no index")
	}
	n := a.Index.Len()
	if len(a.IDs) != n {
		return nil, fmt.Errorf("vectorindex: id map has %d entries for %d vectors", len(a.IDs), n)
	}

	size := headerSize + 4*len(a.Index.data) + trailerSize
	for _, id := range a.IDs {
		size += 4 + len(id)
	}
	out := make([]byte, 0, size)
	out = append(out, containerMagic...)
	out = binary.LittleEndian.AppendUint16(out, containerVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(a.Index.dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(n))
	for _, v := range a.Index.data {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	for _, id := range a.IDs {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(id)))
		out = append(out, id...)
	}
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(out))
	return out, nil
}

// UnmarshalBinary decodes a container. The receiver is only modified when
// the whole container is valid.
func (a *Artifact) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize+trailerSize {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	body, trailer := data[:len(data)-trailerSize], data[len(data)-trailerSize:]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(trailer) {
		return fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	if string(body[:4]) != containerMagic {
		return fmt.Errorf("%w: bad magic %q", ErrCorrupt, body[:4])
	}
	if v := binary.LittleEndian.Uint16(body[4:6]); v != containerVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	dim := int(binary.LittleEndian.Uint32(body[6:10]))
	n := int(binary.LittleEndian.Uint32(body[10:14]))
	if dim <= 0 {
		return fmt.Errorf("%w: dimension %d", ErrCorrupt, dim)
	}

	off := headerSize
	vecBytes := n * dim * 4
	if vecBytes/4/dim != n || off+vecBytes > len(body) {
		return fmt.Errorf("%w: truncated vectors", ErrCorrupt)
	}
	values := make([]float32, n*dim)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
		off += 4
	}

	ids := make([]string, n)
	for i := 0; i < n; i++ {
		if off+4 > len(body) {
			return fmt.Errorf("%w: truncated id length", ErrCorrupt)
		}
		l := int(binary.LittleEndian.Uint32(body[off:]))
		off += 4
		if l < 0 || off+l > len(body) {
			return fmt.Errorf("%w: truncated id", ErrCorrupt)
		}
		ids[i] = string(body[off : off+l])
		off += l
	}
	if off != len(body) {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(body)-off)
	}

	a.Index = &FlatL2{dim: dim, data: values}
	a.IDs = ids
	return nil
}

// Decode is a convenience wrapper around UnmarshalBinary.
func Decode(data []byte) (*Artifact, error) {
	var a Artifact
	if err := a.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &a, nil
}
