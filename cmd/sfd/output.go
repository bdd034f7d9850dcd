package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/fxamacker/cbor/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/geal-ai/sfddust"
)

type format int

const (
	formatText format = iota
	formatJSON
	formatCBOR
)

// result is one queried position. EBV is nil when the position has no
// value (NaN latitude).
type result struct {
	L          float64  `json:"l" cbor:"l"`
	B          float64  `json:"b" cbor:"b"`
	Hemisphere string   `json:"hemisphere,omitempty" cbor:"hemisphere,omitempty"`
	Order      int      `json:"order" cbor:"order"`
	EBV        *float32 `json:"ebv" cbor:"ebv"`
}

func newResult(l, b float64, order int, v float32) result {
	r := result{L: l, B: b, Order: order}
	if h, ok := sfddust.HemisphereOf(b); ok {
		r.Hemisphere = h.String()
	}
	if !math.IsNaN(float64(v)) {
		r.EBV = &v
	}
	return r
}

// hemisphereInfo summarises one loaded map for --info.
type hemisphereInfo struct {
	Hemisphere string  `json:"hemisphere" cbor:"hemisphere"`
	Size       int     `json:"size" cbor:"size"`
	Bytes      uint64  `json:"bytes" cbor:"bytes"`
	Projection string  `json:"projection" cbor:"projection"`
	RefX       float64 `json:"ref_x" cbor:"ref_x"`
	RefY       float64 `json:"ref_y" cbor:"ref_y"`
	EdgeLat    float64 `json:"edge_lat" cbor:"edge_lat"` // latitude at the middle of the first column
	Min        float64 `json:"min" cbor:"min"`
	Max        float64 `json:"max" cbor:"max"`
	Mean       float64 `json:"mean" cbor:"mean"`
	Blank      int     `json:"blank" cbor:"blank"` // NaN pixels
}

func describe(m *sfddust.HemisphereMap) hemisphereInfo {
	vals := make([]float64, 0, len(m.Grid.Vals))
	for _, v := range m.Grid.Vals {
		if !math.IsNaN(float64(v)) {
			vals = append(vals, float64(v))
		}
	}
	_, edgeLat := m.Proj.PixelToWorld(0, m.Proj.RefY)
	info := hemisphereInfo{
		Hemisphere: m.Pole.String(),
		Size:       m.Grid.Size,
		Bytes:      uint64(len(m.Grid.Vals)) * 4,
		Projection: string(m.Proj.Type),
		RefX:       m.Proj.RefX,
		RefY:       m.Proj.RefY,
		EdgeLat:    edgeLat,
		Blank:      len(m.Grid.Vals) - len(vals),
	}
	if len(vals) > 0 {
		info.Min = floats.Min(vals)
		info.Max = floats.Max(vals)
		info.Mean = floats.Sum(vals) / float64(len(vals))
	}
	return info
}

// cborEncMode encodes with sorted keys so output is byte-stable.
var cborEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("sfd: CBOR encoder initialization failed: " + err.Error())
	}
	return em
}()

// emit writes v as JSON or CBOR. Text output is handled by the callers.
func emit(w io.Writer, f format, v any) error {
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatCBOR:
		return cborEncMode.NewEncoder(w).Encode(v)
	}
	return fmt.Errorf("emit: unsupported format %d", f)
}

func printResult(w io.Writer, r result) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Position : l=%.4f°  b=%.4f°\n", r.L, r.B)
	if r.Hemisphere != "" {
		fmt.Fprintf(w, "  Map      : %s\n", r.Hemisphere)
	}
	fmt.Fprintf(w, "  Order    : %d\n", r.Order)
	fmt.Fprintf(w, "\n")
	if r.EBV == nil {
		fmt.Fprintf(w, "  E(B-V)   : (no value)\n")
	} else {
		fmt.Fprintf(w, "  E(B-V)   : %.4f mag\n", *r.EBV)
	}
	fmt.Fprintf(w, "\n")
}

func printInfo(w io.Writer, infos []hemisphereInfo) {
	for _, in := range infos {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "  Hemisphere : %s\n", in.Hemisphere)
		fmt.Fprintf(w, "  Grid       : %d×%d (%s)\n", in.Size, in.Size, humanize.IBytes(in.Bytes))
		fmt.Fprintf(w, "  Projection : %s, pole at pixel (%.1f, %.1f)\n", in.Projection, in.RefX, in.RefY)
		fmt.Fprintf(w, "  Edge lat   : %.2f°\n", in.EdgeLat)
		fmt.Fprintf(w, "  E(B-V)     : min %.4f  max %.4f  mean %.4f\n", in.Min, in.Max, in.Mean)
		if in.Blank > 0 {
			fmt.Fprintf(w, "  Blank      : %s pixels\n", humanize.Comma(int64(in.Blank)))
		}
	}
	fmt.Fprintf(w, "\n")
}
