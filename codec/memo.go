// memo.go packs UTF-8 memo strings into field-element arrays for the
// announcement metadata: a byte-length prefix followed by 31-byte big-endian
// chunks, one felt each.
package codec

import (
	"fmt"
	"math/big"
)

// memoChunkSize is the number of memo bytes packed per felt. 31 bytes keep
// every chunk below 2^248, comfortably inside the field.
const memoChunkSize = 31

// EncodeMemo packs a UTF-8 string into felts: the first felt is the byte
// length, each following felt holds up to 31 bytes big-endian (the first
// byte of a chunk is the most significant byte of its felt). The empty
// string encodes as [0].
func EncodeMemo(s string) []*big.Int {
	data := []byte(s)
	felts := []*big.Int{big.NewInt(int64(len(data)))}
	for off := 0; off < len(data); off += memoChunkSize {
		end := off + memoChunkSize
		if end > len(data) {
			end = len(data)
		}
		felts = append(felts, new(big.Int).SetBytes(data[off:end]))
	}
	return felts
}

// DecodeMemo unpacks a felt array produced by EncodeMemo. The length prefix
// drives the byte count; the last chunk may be partial. An empty array is
// malformed.
func DecodeMemo(felts []*big.Int) (string, error) {
	if len(felts) == 0 {
		return "", fmt.Errorf("%w: empty memo array", ErrInvalidFormat)
	}
	if !felts[0].IsInt64() || felts[0].Sign() < 0 {
		return "", fmt.Errorf("%w: bad memo length", ErrInvalidFormat)
	}
	total := int(felts[0].Int64())

	chunks := (total + memoChunkSize - 1) / memoChunkSize
	if len(felts)-1 < chunks {
		return "", fmt.Errorf("%w: memo length %d exceeds %d chunks", ErrInvalidFormat, total, len(felts)-1)
	}

	data := make([]byte, 0, total)
	remaining := total
	for i := 1; i <= chunks; i++ {
		size := memoChunkSize
		if remaining < size {
			size = remaining
		}
		if felts[i].Sign() < 0 || felts[i].BitLen() > size*8 {
			return "", fmt.Errorf("%w: memo chunk %d overflows %d bytes", ErrInvalidFormat, i, size)
		}
		buf := make([]byte, size)
		felts[i].FillBytes(buf)
		data = append(data, buf...)
		remaining -= size
	}
	return string(data), nil
}
