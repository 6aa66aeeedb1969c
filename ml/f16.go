// f16.go - Dekodierung von float16-gepackten Buffern
//
// Enthaelt:
// - DecodeFloat16: Wandelt little-endian float16 Bytes in float32 um
package ml

import (
	"encoding/binary"
	"fmt"

	"github.com/x448/float16"
)

// DecodeFloat16 dekodiert einen little-endian float16 Buffer zu float32
func DecodeFloat16(b []byte) ([]float32, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("float16 buffer has odd length %d", len(b))
	}

	out := make([]float32, len(b)/2)
	for i := range out {
		bits := binary.LittleEndian.Uint16(b[2*i:])
		out[i] = float16.Frombits(bits).Float32()
	}
	return out, nil
}
