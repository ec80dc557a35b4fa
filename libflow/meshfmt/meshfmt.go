// Package meshfmt reads and writes input meshes as line-oriented text:
//
//	# comment
//	v <x> <y> <z>        vertex
//	f <a> <b> <c>        triangle, 0-based vertex indices
//	u <value>            scalar potential, one per vertex in order
//	g1 <x> <y> <z>       family-1 gradient, one per face in order
//	g2 <x> <y> <z>       family-2 gradient, one per face in order
//	c <index>            feature vertex
//	k <index>            constrained vertex, added to detected features
//	nofeatures           an explicit empty feature list, which turns off feature detection
//
// Statements may appear in any order; each kind is collected in the order it appears.
package meshfmt

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/2x3systems/flowmesh/libflow/inmesh"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

type MeshExpr struct {
	Stmts []*Stmt `@@*`
}

type Stmt struct {
	Vert    *Vec3   `  "v" @@`
	Face    *Tri    `| "f" @@`
	U       *Scalar `| "u" @@`
	GF1     *Vec3   `| "g1" @@`
	GF2     *Vec3   `| "g2" @@`
	Feature *Index  `| "c" @@`
	Constr  *Index  `| "k" @@`
	NoFeats bool    `| @"nofeatures"`
}

type Vec3 struct {
	X float64 `@Number`
	Y float64 `@Number`
	Z float64 `@Number`
}

type Tri struct {
	A int32 `@Number`
	B int32 `@Number`
	C int32 `@Number`
}

type Scalar struct {
	Value float64 `@Number`
}

type Index struct {
	Value int32 `@Number`
}

var meshLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Keyword", Pattern: `[a-z][a-z0-9]*`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var parseMeshExpr = participle.MustBuild[MeshExpr](
	participle.Lexer(meshLexer),
	participle.Elide("Comment", "Whitespace"),
)

func (expr *MeshExpr) params() inmesh.Params {
	var p inmesh.Params
	for _, st := range expr.Stmts {
		switch {
		case st.Vert != nil:
			p.Coords = append(p.Coords, st.Vert.vec())
		case st.Face != nil:
			p.Tris = append(p.Tris, [3]int32{st.Face.A, st.Face.B, st.Face.C})
		case st.U != nil:
			p.U = append(p.U, st.U.Value)
		case st.GF1 != nil:
			p.GF[flowmesh.Sys1] = append(p.GF[flowmesh.Sys1], st.GF1.vec())
		case st.GF2 != nil:
			p.GF[flowmesh.Sys2] = append(p.GF[flowmesh.Sys2], st.GF2.vec())
		case st.Feature != nil:
			p.Features = append(p.Features, st.Feature.Value)
		case st.Constr != nil:
			p.Constrained = append(p.Constrained, st.Constr.Value)
		case st.NoFeats:
			if p.Features == nil {
				p.Features = []int32{}
			}
		}
	}
	return p
}

func (v *Vec3) vec() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// ParseString parses mesh text into Params.  Errors wrap flowmesh.ErrBadInput.
func ParseString(src string) (inmesh.Params, error) {
	expr, err := parseMeshExpr.ParseString("", src)
	if err != nil {
		return inmesh.Params{}, errors.Wrapf(flowmesh.ErrBadInput, "%v", err)
	}
	return expr.params(), nil
}

// Parse reads mesh text from r; name is used in error positions.
func Parse(name string, r io.Reader) (inmesh.Params, error) {
	expr, err := parseMeshExpr.Parse(name, r)
	if err != nil {
		return inmesh.Params{}, errors.Wrapf(flowmesh.ErrBadInput, "%v", err)
	}
	return expr.params(), nil
}

// LoadFile parses the named file and builds an InputMesh from it.
func LoadFile(pathname string) (*inmesh.InputMesh, error) {
	file, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	p, err := Parse(pathname, bufio.NewReader(file))
	if err != nil {
		return nil, err
	}
	M, err := inmesh.New(p)
	if err != nil {
		return nil, errors.Wrapf(err, "load %q", pathname)
	}
	return M, nil
}

// Write emits p as mesh text that Parse reads back exactly.
func Write(out io.Writer, p *inmesh.Params) error {
	w := bufio.NewWriter(out)
	line := make([]byte, 0, 96)

	vec := func(key string, v r3.Vec) {
		line = append(line[:0], key...)
		for _, x := range [3]float64{v.X, v.Y, v.Z} {
			line = append(line, ' ')
			line = strconv.AppendFloat(line, x, 'g', -1, 64)
		}
		line = append(line, '\n')
		w.Write(line)
	}

	line = append(line[:0], "# verts "...)
	line = strconv.AppendInt(line, int64(len(p.Coords)), 10)
	line = append(line, ", faces "...)
	line = strconv.AppendInt(line, int64(len(p.Tris)), 10)
	line = append(line, '\n')
	w.Write(line)

	for _, co := range p.Coords {
		vec("v", co)
	}
	for _, tri := range p.Tris {
		line = append(line[:0], 'f')
		for _, vi := range tri {
			line = append(line, ' ')
			line = strconv.AppendInt(line, int64(vi), 10)
		}
		line = append(line, '\n')
		w.Write(line)
	}
	for _, u := range p.U {
		line = append(line[:0], "u "...)
		line = strconv.AppendFloat(line, u, 'g', -1, 64)
		line = append(line, '\n')
		w.Write(line)
	}
	for _, g := range p.GF[flowmesh.Sys1] {
		vec("g1", g)
	}
	for _, g := range p.GF[flowmesh.Sys2] {
		vec("g2", g)
	}
	index := func(key string, vi int32) {
		line = append(append(line[:0], key...), ' ')
		line = strconv.AppendInt(line, int64(vi), 10)
		line = append(line, '\n')
		w.Write(line)
	}
	if p.Features != nil && len(p.Features) == 0 {
		w.WriteString("nofeatures\n")
	}
	for _, vi := range p.Features {
		index("c", vi)
	}
	for _, vi := range p.Constrained {
		index("k", vi)
	}

	return w.Flush()
}
