package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Metadata keys as stored in the vector store. Every value is a string; tags
// are a JSON-encoded array inside the string.
const (
	metaDate    = "date"
	metaRecency = "recency"
	metaTags    = "tags"
)

// Memory is a committed long-term fact. It is created once by Manager.Commit
// and never updated or deleted.
type Memory struct {
	// ID is derived from the document and the commit time.
	ID string

	// Document is the one-sentence summary of the original exchange.
	Document string

	// Embedding is the unit-norm vector of the raw exchange text.
	Embedding []float32

	Metadata Metadata
}

// Metadata describes when a memory was committed and what it is about.
type Metadata struct {
	// Date is the commit time in ISO-8601.
	Date string

	// Recency is the commit time in seconds since the epoch.
	Recency float64

	Tags []string
}

// NewMemory builds a memory committed at the given time.
func NewMemory(document string, embedding []float32, tags []string, at time.Time) Memory {
	if tags == nil {
		tags = []string{}
	}
	return Memory{
		ID:        MakeID(document, at),
		Document:  document,
		Embedding: embedding,
		Metadata: Metadata{
			Date:    at.Format(time.RFC3339Nano),
			Recency: float64(at.UnixNano()) / float64(time.Second),
			Tags:    tags,
		},
	}
}

// MakeID derives a memory identifier from content and a commit timestamp.
// Identical content committed at different times gets different IDs; the ID
// is not a logical dedup key.
func MakeID(content string, at time.Time) string {
	sum := sha256.Sum256([]byte(content + "|" + at.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:16]
}

// Encode flattens metadata into the string map the store accepts.
func (m Metadata) Encode() map[string]string {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	encodedTags, _ := json.Marshal(tags)
	return map[string]string{
		metaDate:    m.Date,
		metaRecency: strconv.FormatFloat(m.Recency, 'f', -1, 64),
		metaTags:    string(encodedTags),
	}
}

// DecodeMetadata reads stored metadata. Missing or corrupt fields decode to
// zero values; it never fails.
func DecodeMetadata(raw map[string]string) Metadata {
	md := Metadata{
		Date: raw[metaDate],
		Tags: ParseTags(raw[metaTags]),
	}
	if r, err := strconv.ParseFloat(strings.TrimSpace(raw[metaRecency]), 64); err == nil {
		md.Recency = r
	}
	return md
}

// ParseTags decodes the JSON-encoded tag array of a stored memory.
// Absent or corrupt values yield an empty slice.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}
	}
	if tags == nil {
		return []string{}
	}
	return tags
}
