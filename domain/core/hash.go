package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// DatasetHash identifies a loaded record collection by content.
type DatasetHash Hash

func NewDatasetHash(data []byte) DatasetHash { return DatasetHash(NewHash(data)) }

func (h DatasetHash) String() string { return Hash(h).String() }

// Short returns a truncated hash suitable for log lines.
func (h DatasetHash) Short() string {
	s := string(h)
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

// ComputeDatasetHash fingerprints a flat record collection for snapshot identity.
// Rows are hashed in input order; a reordered upload is a different dataset.
func ComputeDatasetHash(rows []string) DatasetHash {
	var data strings.Builder
	for _, row := range rows {
		data.WriteString(row)
		data.WriteString("\n")
	}
	return NewDatasetHash([]byte(data.String()))
}
