package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/weakform/geometry"
	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle      SU2ElementType = 5
	ELType_Quadrilateral SU2ElementType = 9
	ELType_Tetrahedral   SU2ElementType = 10
	ELType_Hexahedral    SU2ElementType = 12
	ELType_Prism         SU2ElementType = 13
	ELType_Pyramid       SU2ElementType = 14
)

func (et SU2ElementType) ElementType() (t types.ElementType, err error) {
	switch et {
	case ELType_LINE:
		t = types.Line
	case ELType_Triangle:
		t = types.Triangle
	case ELType_Tetrahedral:
		t = types.Tetrahedron
	default:
		err = fmt.Errorf("SU2 element type %d is not a linear simplex", et)
	}
	return
}

// The volume elements form region VolumeRegion, the markers follow in file
// order as regions VolumeRegion+1, VolumeRegion+2, ...
const VolumeRegion types.DisjointRegion = 1

type SU2Mesh struct {
	*geometry.Mesh
	Markers map[string]types.DisjointRegion
}

type su2Reader struct {
	reader *bufio.Reader
	line   int
}

func (r *su2Reader) getLine() (line string, err error) {
	line, err = r.reader.ReadString('\n')
	if err == io.EOF && len(line) != 0 {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("early end of file after line %d", r.line)
		}
		return
	}
	r.line++
	line = strings.TrimSpace(line)
	return
}

func (r *su2Reader) getLineNoComments() (line string, err error) {
	for {
		if line, err = r.getLine(); err != nil {
			return
		}
		if len(line) != 0 && !strings.HasPrefix(line, "%") {
			return
		}
	}
}

// getToken reads "KEY= value" and checks the key.
func (r *su2Reader) getToken(key string) (token string, err error) {
	var line string
	if line, err = r.getLineNoComments(); err != nil {
		return
	}
	ind := strings.Index(line, "=")
	if ind < 0 {
		err = fmt.Errorf("badly formed input line %d [%s], should have an =", r.line, line)
		return
	}
	if k := strings.TrimSpace(line[:ind]); k != key {
		err = fmt.Errorf("line %d: expected %s, have %s", r.line, key, k)
		return
	}
	token = strings.TrimSpace(line[ind+1:])
	return
}

func (r *su2Reader) readNumber(key string) (num int, err error) {
	var token string
	if token, err = r.getToken(key); err != nil {
		return
	}
	if num, err = strconv.Atoi(token); err != nil {
		err = fmt.Errorf("unable to read %s from token [%s]: %w", key, token, err)
	}
	return
}

// readElements reads n "type v1 v2 ... [index]" lines of a single element type.
func (r *su2Reader) readElements(n int) (et types.ElementType, conn utils.IndexMat, err error) {
	if n < 1 {
		err = fmt.Errorf("line %d: element block is empty", r.line)
		return
	}
	for k := 0; k < n; k++ {
		var (
			line   string
			fields []string
			vals   []int
		)
		if line, err = r.getLineNoComments(); err != nil {
			return
		}
		fields = strings.Fields(line)
		vals = make([]int, len(fields))
		for i, f := range fields {
			if vals[i], err = strconv.Atoi(f); err != nil {
				err = fmt.Errorf("line %d: %w", r.line, err)
				return
			}
		}
		var t types.ElementType
		if len(vals) == 0 {
			err = fmt.Errorf("line %d: empty element", r.line)
			return
		}
		if t, err = SU2ElementType(vals[0]).ElementType(); err != nil {
			err = fmt.Errorf("line %d: %w", r.line, err)
			return
		}
		nv := t.CountVertices()
		if k == 0 {
			et, conn = t, utils.NewIndexMat(n, nv)
		} else if t != et {
			err = fmt.Errorf("line %d: mixed %s and %s elements in one block", r.line, et, t)
			return
		}
		if len(vals) < nv+1 {
			err = fmt.Errorf("line %d: %s needs %d vertices, have %d", r.line, t, nv, len(vals)-1)
			return
		}
		for v := 0; v < nv; v++ {
			conn.Set(k, v, vals[v+1])
		}
	}
	return
}

func (r *su2Reader) readVertices(n, dim int) (nodes utils.Matrix, err error) {
	nodes = utils.NewMatrix(n, 3)
	for i := 0; i < n; i++ {
		var line string
		if line, err = r.getLineNoComments(); err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) < dim {
			err = fmt.Errorf("line %d: unable to read %d coordinates", r.line, dim)
			return
		}
		for d := 0; d < dim; d++ {
			var x float64
			if x, err = strconv.ParseFloat(fields[d], 64); err != nil {
				err = fmt.Errorf("line %d: %w", r.line, err)
				return
			}
			nodes.Set(i, d, x)
		}
	}
	return
}

// ParseSU2 reads a mesh in SU2 format: NDIME, NELEM, NPOIN then NMARK.
func ParseSU2(rd io.Reader) (m *SU2Mesh, err error) {
	var (
		r                 = &su2Reader{reader: bufio.NewReader(rd)}
		dim, nElem, nPoin int
		nMark             int
		et                types.ElementType
		conn              utils.IndexMat
		nodes             utils.Matrix
		mesh              *geometry.Mesh
	)
	if dim, err = r.readNumber("NDIME"); err != nil {
		return
	}
	if nElem, err = r.readNumber("NELEM"); err != nil {
		return
	}
	if et, conn, err = r.readElements(nElem); err != nil {
		return
	}
	if nPoin, err = r.readNumber("NPOIN"); err != nil {
		return
	}
	if nodes, err = r.readVertices(nPoin, dim); err != nil {
		return
	}
	if mesh, err = geometry.NewMesh(dim, nodes); err != nil {
		return
	}
	if err = mesh.AddRegion(VolumeRegion, et, conn); err != nil {
		return
	}
	m = &SU2Mesh{Mesh: mesh, Markers: make(map[string]types.DisjointRegion)}
	if nMark, err = r.readNumber("NMARK"); err != nil {
		return
	}
	for i := 0; i < nMark; i++ {
		var (
			label  string
			nm     int
			region = VolumeRegion + types.DisjointRegion(i+1)
		)
		if label, err = r.getToken("MARKER_TAG"); err != nil {
			return
		}
		if _, ok := m.Markers[label]; ok {
			err = fmt.Errorf("duplicate marker found with label: [%s]", label)
			return
		}
		if nm, err = r.readNumber("MARKER_ELEMS"); err != nil {
			return
		}
		if et, conn, err = r.readElements(nm); err != nil {
			return
		}
		if err = mesh.AddRegion(region, et, conn); err != nil {
			return
		}
		m.Markers[label] = region
	}
	return
}

func ReadSU2(filename string, verbose bool) (m *SU2Mesh, err error) {
	var file *os.File
	if verbose {
		fmt.Printf("Reading SU2 file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return
	}
	defer file.Close()
	if m, err = ParseSU2(file); err != nil {
		err = fmt.Errorf("%s: %w", filename, err)
	}
	return
}
