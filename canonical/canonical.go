// Package canonical derives stable, content-addressed identifiers from
// archive documents. The same fields under the same namespace always
// map to the same UUID, which is what makes re-imports idempotent.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// Canonicalize encodes fields as a compact JSON object with keys in
// lexicographic order and HTML escaping disabled. Two maps with the
// same entries always produce identical bytes regardless of insertion
// order.
func Canonicalize(fields map[string]string) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(encodeString(k))
		buf.WriteByte(':')
		buf.Write(encodeString(fields[k]))
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// DeriveId hashes namespace and canonical fields into a UUID. The
// digest input is namespace, a zero byte separator, then the canonical
// encoding; the first 16 bytes of the SHA-256 sum are stamped with the
// version 8 and RFC 4122 variant bits.
func DeriveId(namespace string, fields map[string]string) uuid.UUID {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write(Canonicalize(fields))
	sum := h.Sum(nil)

	var id uuid.UUID
	copy(id[:], sum[:16])
	id[6] = (id[6] & 0x0f) | 0x80 // version 8
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant
	return id
}

func encodeString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a plain string cannot fail
	enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
