package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemory_Metadata(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)
	mem := NewMemory("User likes jazz.", []float32{1, 0}, []string{"music"}, at)

	assert.Len(t, mem.ID, 16)
	assert.Equal(t, "2024-03-01T12:00:00.0000005Z", mem.Metadata.Date)
	assert.InDelta(t, float64(at.Unix()), mem.Metadata.Recency, 1e-3)

	raw := mem.Metadata.Encode()
	assert.Equal(t, `["music"]`, raw["tags"])

	decoded := DecodeMetadata(raw)
	assert.Equal(t, mem.Metadata.Date, decoded.Date)
	assert.Equal(t, []string{"music"}, decoded.Tags)
	assert.InDelta(t, mem.Metadata.Recency, decoded.Recency, 1e-3)
}

func TestNewMemory_NilTagsEncodeAsEmptyArray(t *testing.T) {
	mem := NewMemory("doc", []float32{1}, nil, time.Now())
	assert.Equal(t, "[]", mem.Metadata.Encode()["tags"])
}

func TestMakeID(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, MakeID("a", at), MakeID("a", at))
	assert.NotEqual(t, MakeID("a", at), MakeID("a", at.Add(time.Nanosecond)))
	assert.NotEqual(t, MakeID("a", at), MakeID("b", at))

	// Same instant in another zone is the same commit time.
	loc := time.FixedZone("X", 3600)
	assert.Equal(t, MakeID("a", at), MakeID("a", at.In(loc)))
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseTags(`["a","b"]`))
	assert.Equal(t, []string{}, ParseTags(""))
	assert.Equal(t, []string{}, ParseTags("not json"))
	assert.Equal(t, []string{}, ParseTags(`{"a":1}`))
	assert.Equal(t, []string{}, ParseTags("null"))
}

func TestDecodeMetadata_Lenient(t *testing.T) {
	md := DecodeMetadata(map[string]string{"recency": "soon", "tags": "["})
	require.NotNil(t, md.Tags)
	assert.Empty(t, md.Tags)
	assert.Zero(t, md.Recency)
	assert.Empty(t, md.Date)
}
