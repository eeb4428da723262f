package vectorindex

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioArtifact(t *testing.T) *Artifact {
	t.Helper()
	a, err := NewArtifact(
		[]string{"a", "b", "c"},
		[][]float32{
			{0, 0, 0, 0},
			{1, 0, 0, 0},
			{10, 10, 10, 10},
		},
	)
	require.NoError(t, err)
	return a
}

func TestNewArtifact_Validation(t *testing.T) {
	_, err := NewArtifact([]string{"a"}, nil)
	assert.Error(t, err)

	_, err = NewArtifact(nil, nil)
	assert.Error(t, err)

	_, err = NewArtifact([]string{"a", "b"}, [][]float32{{1, 2}, {1}})
	assert.True(t, errors.Is(err, ErrDimension))
}

func TestArtifact_ID(t *testing.T) {
	a := scenarioArtifact(t)

	id, ok := a.ID(2)
	assert.True(t, ok)
	assert.Equal(t, "c", id)

	_, ok = a.ID(MissingPosition)
	assert.False(t, ok)
	_, ok = a.ID(3)
	assert.False(t, ok)
}

func TestArtifact_RoundTrip(t *testing.T) {
	original := scenarioArtifact(t)

	data, err := original.MarshalBinary()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, original.IDs, decoded.IDs)
	assert.Equal(t, original.Index.Dim(), decoded.Index.Dim())
	require.Equal(t, original.Index.Len(), decoded.Index.Len())

	for i := 0; i < original.Index.Len(); i++ {
		v, ok := original.Index.Vector(i)
		require.True(t, ok)

		positions, distances, err := decoded.Index.Search(v, 1)
		require.NoError(t, err)
		assert.Equal(t, i, positions[0])
		assert.Equal(t, float32(0), distances[0])

		id, ok := decoded.ID(positions[0])
		require.True(t, ok)
		assert.Equal(t, original.IDs[i], id)
	}
}

func TestArtifact_MarshalRejectsUnpairedIDs(t *testing.T) {
	a := scenarioArtifact(t)
	a.IDs = a.IDs[:2]

	_, err := a.MarshalBinary()
	assert.Error(t, err)
}

func TestArtifact_UnmarshalRejectsCorruption(t *testing.T) {
	data, err := scenarioArtifact(t).MarshalBinary()
	require.NoError(t, err)

	resign := func(b []byte) []byte {
		body := b[:len(b)-trailerSize]
		return binary.LittleEndian.AppendUint32(append([]byte(nil), body...), crc32.ChecksumIEEE(body))
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", data[:8]},
		{"truncated", data[:len(data)-6]},
		{"flipped byte", func() []byte {
			b := append([]byte(nil), data...)
			b[headerSize+3] ^= 0xFF
			return b
		}()},
		{"bad magic", func() []byte {
			b := append([]byte(nil), data...)
			copy(b, "FAIS")
			return resign(b)
		}()},
		{"bad version", func() []byte {
			b := append([]byte(nil), data...)
			binary.LittleEndian.PutUint16(b[4:], 9)
			return resign(b)
		}()},
		{"count larger than payload", func() []byte {
			b := append([]byte(nil), data...)
			binary.LittleEndian.PutUint32(b[10:], 1000)
			return resign(b)
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Artifact
			err := a.UnmarshalBinary(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorrupt))
			assert.Nil(t, a.Index, "receiver must not be modified")
		})
	}
}
