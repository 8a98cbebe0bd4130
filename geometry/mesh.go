package geometry

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// ElementBlock holds the elements of one disjoint region. Every element of a
// block has the same type.
type ElementBlock struct {
	Type         types.ElementType
	Connectivity utils.IndexMat // numElements x numVertices, node numbers
}

func (eb *ElementBlock) CountElements() int { return eb.Connectivity.CountRows() }

// Mesh is the in-memory view of the mesh collaborator: node coordinates and the
// disjoint region partition. Loading and region algebra happen elsewhere.
type Mesh struct {
	Dim    int          // dimension of the physical space: 1, 2 or 3
	Nodes  utils.Matrix // numNodes x 3
	blocks map[types.DisjointRegion]*ElementBlock
}

func NewMesh(dim int, nodes utils.Matrix) (m *Mesh, err error) {
	if dim < 1 || dim > 3 {
		err = fmt.Errorf("mesh dimension must be 1, 2 or 3, have %d", dim)
		return
	}
	if _, nc := nodes.Dims(); nc != 3 {
		err = fmt.Errorf("node coordinates need 3 columns, have %d: %w", nc, utils.ErrDimensionMismatch)
		return
	}
	m = &Mesh{
		Dim:    dim,
		Nodes:  nodes,
		blocks: make(map[types.DisjointRegion]*ElementBlock),
	}
	return
}

func (m *Mesh) CountNodes() int {
	nr, _ := m.Nodes.Dims()
	return nr
}

func (m *Mesh) AddRegion(region types.DisjointRegion, et types.ElementType, conn utils.IndexMat) (err error) {
	var (
		nn = m.CountNodes()
	)
	if conn.CountColumns() != et.CountVertices() {
		err = fmt.Errorf("%s elements have %d vertices, connectivity has %d columns: %w",
			et, et.CountVertices(), conn.CountColumns(), utils.ErrDimensionMismatch)
		return
	}
	if conn.Count() > 0 {
		min, max, _ := conn.MinMax()
		if min < 0 || max >= nn {
			err = fmt.Errorf("connectivity of region %d references node range [%d,%d], mesh has %d nodes",
				region, min, max, nn)
			return
		}
	}
	m.blocks[region] = &ElementBlock{Type: et, Connectivity: conn}
	return
}

func (m *Mesh) Block(region types.DisjointRegion) (eb *ElementBlock, err error) {
	var ok bool
	if eb, ok = m.blocks[region]; !ok {
		err = fmt.Errorf("disjoint region %d is not in the mesh: %w", region, utils.ErrUnresolvedReference)
	}
	return
}

func (m *Mesh) Regions() (regions []types.DisjointRegion) {
	for r := range m.blocks {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	return
}

// VertexCoordinates returns, per direction, the (elements x vertices) vertex
// coordinates of the selected region-local elements. A non empty displacement
// (same layout) is added to obtain the deformed vertices.
func (m *Mesh) VertexCoordinates(region types.DisjointRegion, elems utils.IndexMat,
	displacement [3]utils.Matrix) (V [3]utils.Matrix, err error) {
	var (
		eb *ElementBlock
		nv int
		ne = elems.Count()
	)
	if eb, err = m.Block(region); err != nil {
		return
	}
	nv = eb.Type.CountVertices()
	for d := 0; d < 3; d++ {
		V[d] = utils.NewMatrix(ne, nv)
	}
	nodes := m.Nodes.Data()
	for i, k := range elems.Values() {
		if k < 0 || k >= eb.CountElements() {
			err = fmt.Errorf("element %d out of range for region %d with %d elements",
				k, region, eb.CountElements())
			return
		}
		for v, node := range eb.Connectivity.Row(k) {
			for d := 0; d < 3; d++ {
				V[d].Data()[i*nv+v] = nodes[node*3+d]
			}
		}
	}
	for d := 0; d < 3; d++ {
		if displacement[d].IsEmpty() {
			continue
		}
		if err = utils.SameShape(V[d], displacement[d]); err != nil {
			err = fmt.Errorf("mesh deformation: %w", err)
			return
		}
		V[d].Add(displacement[d])
	}
	return
}

// PhysicalCoordinates maps the reference points to (elements x points)
// coordinate matrices x, y and z.
func PhysicalCoordinates(et types.ElementType, V [3]utils.Matrix, refCoords []float64) (X [3]utils.Matrix, err error) {
	var (
		N utils.Matrix
	)
	if N, err = ShapeFunctions(et, refCoords); err != nil {
		return
	}
	for d := 0; d < 3; d++ {
		var (
			ne, _ = V[d].Dims()
			np, _ = N.Dims()
		)
		X[d] = utils.NewMatrix(ne, np)
		if ne == 0 || np == 0 {
			continue
		}
		X[d].M.Mul(V[d].M, N.M.T())
	}
	return
}

// InverseJacobians returns one (dim x dim) inverse Jacobian per element.
// Spatial derivatives are only defined when the element fills the space.
func InverseJacobians(et types.ElementType, dim int, V [3]utils.Matrix) (Jinv []*mat.Dense, err error) {
	var (
		dN    = ShapeGradients(et)
		ne, _ = V[0].Dims()
		nv    = et.CountVertices()
	)
	if et.Dimension() != dim {
		err = fmt.Errorf("%dD %s elements in a %dD mesh have no square Jacobian: %w",
			et.Dimension(), et, dim, utils.ErrDimensionMismatch)
		return
	}
	Jinv = make([]*mat.Dense, ne)
	for k := 0; k < ne; k++ {
		J := mat.NewDense(dim, dim, nil)
		for i := 0; i < dim; i++ {
			vc := V[i].Data()[k*nv : (k+1)*nv]
			for d := 0; d < dim; d++ {
				var sum float64
				for v := 0; v < nv; v++ {
					sum += vc[v] * dN.At(v, d)
				}
				J.Set(i, d, sum)
			}
		}
		inv := mat.NewDense(dim, dim, nil)
		if err = inv.Inverse(J); err != nil {
			err = fmt.Errorf("element %d has a singular Jacobian: %w", k, err)
			return
		}
		Jinv[k] = inv
	}
	return
}
