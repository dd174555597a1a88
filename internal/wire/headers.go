// Package wire implements the self-describing binary encoding of the header
// block attached to native queue entries. The format needs no external schema:
// a record count followed by flag-prefixed, length-prefixed key/value pairs.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrTruncated reports a header blob that ends mid-record.
	ErrTruncated = errors.New("wire: truncated header blob")
)

const (
	keyAbsent  = 0x00
	keyPresent = 0x01
)

// EncodeHeaders serializes a header mapping into its binary form. Keys are
// written in sorted order so equal mappings produce identical bytes. An empty
// mapping encodes to the one-byte zero-count payload.
func EncodeHeaders(headers map[string]string) []byte {
	buf := binary.AppendUvarint(nil, uint64(len(headers)))

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		buf = append(buf, keyPresent)
		buf = binary.AppendUvarint(buf, uint64(len(k)))
		buf = append(buf, k...)
		v := headers[k]
		buf = binary.AppendUvarint(buf, uint64(len(v)))
		buf = append(buf, v...)
	}
	return buf
}

// DecodeHeaders parses a binary header blob back into a mapping. Records whose
// key-presence flag marks the key absent are skipped silently; they occur only
// in blobs written by foreign producers. A nil or empty blob decodes to an
// empty mapping.
func DecodeHeaders(blob []byte) (map[string]string, error) {
	headers := make(map[string]string)
	if len(blob) == 0 {
		return headers, nil
	}

	count, n := binary.Uvarint(blob)
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad record count", ErrTruncated)
	}
	rest := blob[n:]

	for i := uint64(0); i < count; i++ {
		if len(rest) == 0 {
			return nil, fmt.Errorf("%w: %d of %d records", ErrTruncated, i, count)
		}
		flag := rest[0]
		rest = rest[1:]

		var key string
		var ok bool
		if flag == keyPresent {
			key, rest, ok = readString(rest)
			if !ok {
				return nil, fmt.Errorf("%w: record %d key", ErrTruncated, i)
			}
		}

		value, remaining, ok := readString(rest)
		if !ok {
			return nil, fmt.Errorf("%w: record %d value", ErrTruncated, i)
		}
		rest = remaining

		if flag != keyPresent {
			continue
		}
		headers[key] = value
	}
	return headers, nil
}

// readString consumes one uvarint-length-prefixed string.
func readString(b []byte) (string, []byte, bool) {
	length, n := binary.Uvarint(b)
	if n <= 0 {
		return "", nil, false
	}
	b = b[n:]
	if uint64(len(b)) < length {
		return "", nil, false
	}
	return string(b[:length]), b[length:], true
}
