package flowmesh

import (
	"fmt"
	"io"
	"math"

	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

const polyMeshEncodingVers = 1

/*
PolyMesh encoding (protobuf wire primitives):

	vers                      varint
	len(Verts)                varint
		X, Y, Z               fixed64 (IEEE 754 bits)
		...
	len(Loops)                varint
		vtx index             varint
		...
	len(Polys)                varint
		Start, Len            varint
		...
	len(Edges)                varint
		V1, V2                varint
		...
*/

// Marshal encodes this mesh into a new buffer.
func (mesh *PolyMesh) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(make([]byte, 0, 16+24*len(mesh.Verts)+2*len(mesh.Loops)+4*len(mesh.Polys)))

	buf.EncodeVarint(polyMeshEncodingVers)
	buf.EncodeVarint(uint64(len(mesh.Verts)))
	for _, v := range mesh.Verts {
		buf.EncodeFixed64(math.Float64bits(v.X))
		buf.EncodeFixed64(math.Float64bits(v.Y))
		buf.EncodeFixed64(math.Float64bits(v.Z))
	}

	buf.EncodeVarint(uint64(len(mesh.Loops)))
	for _, vi := range mesh.Loops {
		if vi < 0 {
			return nil, errors.Wrapf(ErrBadEncoding, "negative loop vertex %d", vi)
		}
		buf.EncodeVarint(uint64(vi))
	}

	buf.EncodeVarint(uint64(len(mesh.Polys)))
	for _, p := range mesh.Polys {
		buf.EncodeVarint(uint64(p.Start))
		buf.EncodeVarint(uint64(p.Len))
	}

	buf.EncodeVarint(uint64(len(mesh.Edges)))
	for _, e := range mesh.Edges {
		buf.EncodeVarint(uint64(e[0]))
		buf.EncodeVarint(uint64(e[1]))
	}

	return buf.Bytes(), nil
}

// Unmarshal resets this mesh and decodes the given buffer into it.
func (mesh *PolyMesh) Unmarshal(in []byte) error {
	*mesh = PolyMesh{}
	dec := polyMeshDecoder{
		buf:    proto.NewBuffer(in),
		srcLen: uint64(len(in)),
	}

	if vers := dec.varint(); dec.err == nil && vers != polyMeshEncodingVers {
		return errors.Wrapf(ErrUnmarshal, "unsupported encoding version %d", vers)
	}

	if N := dec.count(24); N > 0 {
		mesh.Verts = make([]r3.Vec, N)
		for i := range mesh.Verts {
			mesh.Verts[i] = r3.Vec{X: dec.float(), Y: dec.float(), Z: dec.float()}
		}
	}
	if N := dec.count(1); N > 0 {
		mesh.Loops = make([]int32, N)
		for i := range mesh.Loops {
			mesh.Loops[i] = dec.index(len(mesh.Verts))
		}
	}
	if N := dec.count(2); N > 0 {
		mesh.Polys = make([]Poly, N)
		for i := range mesh.Polys {
			p := Poly{
				Start: dec.index(len(mesh.Loops)),
				Len:   dec.index(len(mesh.Loops) + 1),
			}
			if dec.err == nil && int(p.Start)+int(p.Len) > len(mesh.Loops) {
				dec.err = errors.Wrapf(ErrBadEncoding, "poly %d overruns loops", i)
			}
			mesh.Polys[i] = p
		}
	}
	if N := dec.count(2); N > 0 {
		mesh.Edges = make([][2]int32, N)
		for i := range mesh.Edges {
			mesh.Edges[i] = [2]int32{dec.index(len(mesh.Verts)), dec.index(len(mesh.Verts))}
		}
	}

	return dec.err
}

type polyMeshDecoder struct {
	buf    *proto.Buffer
	srcLen uint64
	err    error
}

func (dec *polyMeshDecoder) varint() uint64 {
	if dec.err != nil {
		return 0
	}
	x, err := dec.buf.DecodeVarint()
	if err != nil {
		dec.err = errors.Wrap(ErrUnmarshal, err.Error())
	}
	return x
}

// count reads an element count, rejecting counts that could not fit in the source buffer.
func (dec *polyMeshDecoder) count(minBytesPer uint64) int {
	N := dec.varint()
	if dec.err == nil && N > dec.srcLen/minBytesPer {
		dec.err = errors.Wrapf(ErrUnmarshal, "element count %d exceeds buffer", N)
	}
	if dec.err != nil {
		return 0
	}
	return int(N)
}

func (dec *polyMeshDecoder) index(limit int) int32 {
	x := dec.varint()
	if dec.err == nil && x >= uint64(limit) {
		dec.err = errors.Wrapf(ErrBadEncoding, "index %d out of range", x)
	}
	return int32(x)
}

func (dec *polyMeshDecoder) float() float64 {
	if dec.err != nil {
		return 0
	}
	x, err := dec.buf.DecodeFixed64()
	if err != nil {
		dec.err = errors.Wrap(ErrUnmarshal, err.Error())
	}
	return math.Float64frombits(x)
}

// WriteAsString writes a one-line summary of this mesh, optionally followed by its vertex coords.
func (mesh *PolyMesh) WriteAsString(out io.Writer, opts PrintOpts) {
	var hist [6]int
	for _, p := range mesh.Polys {
		n := int(p.Len)
		if n >= len(hist) {
			n = len(hist) - 1
		}
		hist[n]++
	}
	fmt.Fprintf(out, "verts=%d,polys=%d,edges=%d,tris=%d,quads=%d,ngons=%d",
		len(mesh.Verts), len(mesh.Polys), len(mesh.Edges), hist[3], hist[4], hist[5])
	if opts.Verts {
		for _, v := range mesh.Verts {
			fmt.Fprintf(out, ",(%.4f %.4f %.4f)", v.X, v.Y, v.Z)
		}
	}
}
