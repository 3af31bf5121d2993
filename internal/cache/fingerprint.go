package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Fingerprint produces a stable cache key for a search request.
// Query text is whitespace-collapsed so trivially different spellings
// of the same question share an entry. Collection, result count and
// threshold are part of the key: the same text with a different k or
// threshold is a different search.
func Fingerprint(text, collection string, topK int, threshold float64) string {
	norm := strings.Join(strings.Fields(text), " ")

	h := sha256.New()
	h.Write([]byte(norm))
	h.Write([]byte{0})
	h.Write([]byte(collection))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(topK)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(threshold, 'f', -1, 64)))
	return hex.EncodeToString(h.Sum(nil))
}
