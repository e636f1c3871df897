package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Key is the composite store key of one trace.
type Key struct {
	ReceiverDepth float64
	SourceDepth   float64
	Distance      float64
	Component     int
}

func (k Key) String() string {
	return fmt.Sprintf("(%g, %g, %g, %d)",
		k.ReceiverDepth, k.SourceDepth, k.Distance, k.Component)
}

// GFTrace is the stored time-series payload: start time [s], sample
// interval [s] and the samples. Ownership passes to the write scope for
// the duration of a Put; the store does not retain it afterwards.
type GFTrace struct {
	TMin   float64
	DeltaT float64
	Data   []float64
}

// Scaled returns a copy of the trace with all samples multiplied by
// factor. Traces are scaled to unit-source responses before insertion.
func (t GFTrace) Scaled(factor float64) GFTrace {
	data := make([]float64, len(t.Data))
	for i, v := range t.Data {
		data[i] = v * factor
	}
	return GFTrace{TMin: t.TMin, DeltaT: t.DeltaT, Data: data}
}

// encodeSamples packs samples as little-endian float32, the payload format
// of the trace blob column.
func encodeSamples(data []float64) []byte {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	return buf
}

func decodeSamples(buf []byte) ([]float64, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("trace blob length %d not a multiple of 4", len(buf))
	}
	data := make([]float64, len(buf)/4)
	for i := range data {
		data[i] = float64(math.Float32frombits(
			binary.LittleEndian.Uint32(buf[4*i:])))
	}
	return data, nil
}
