package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformed is returned when stored bytes do not decode to a float32 vector.
var ErrMalformed = errors.New("malformed vector encoding")

const float32Size = 4

// Encode packs v as little-endian float32 values.
func Encode(v []float32) []byte {
	out := make([]byte, len(v)*float32Size)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*float32Size:], math.Float32bits(f))
	}
	return out
}

// Decode unpacks bytes written by Encode.
func Decode(b []byte) ([]float32, error) {
	if len(b)%float32Size != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(b))
	}
	out := make([]float32, len(b)/float32Size)
	for i := range out {
		f := math.Float32frombits(binary.LittleEndian.Uint32(b[i*float32Size:]))
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil, fmt.Errorf("%w: non-finite value at %d", ErrMalformed, i)
		}
		out[i] = f
	}
	return out, nil
}
