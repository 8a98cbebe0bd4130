package InputParameters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/weakform/field"
	"github.com/notargets/weakform/geometry"
	"github.com/notargets/weakform/parameter"
	"github.com/notargets/weakform/readfiles"
	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

type RegionInput struct {
	Type     string  `yaml:"Type"`
	Elements [][]int `yaml:"Elements"`
}

// Parameters obtained from the YAML problem file
type InputParameters struct {
	Title           string                             `yaml:"Title"`
	Dimension       int                                `yaml:"Dimension"`
	Frequency       float64                            `yaml:"Frequency"`
	FFTTimeEvals    int                                `yaml:"FFTTimeEvals"`
	MaxHarmonic     int                                `yaml:"MaxHarmonic"`
	QuadratureOrder int                                `yaml:"QuadratureOrder"`
	MeshFile        string                             `yaml:"MeshFile"` // SU2 mesh, replaces Nodes and Regions
	Nodes           [][]float64                        `yaml:"Nodes"`
	Regions         map[int]RegionInput                `yaml:"Regions"`
	Parameters      map[string]map[int]map[int]float64 `yaml:"Parameters"` // name, then region, then harmonic
	Fields          map[string]map[int][]float64       `yaml:"Fields"`     // name, then harmonic, nodal values
	Expression      string                             `yaml:"Expression"` // RPN tokens separated by blanks
	Evaluate        []int                              `yaml:"Evaluate"`   // regions, all when empty
}

func (ip *InputParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	if ip.Dimension == 0 {
		ip.Dimension = 2
	}
	if ip.QuadratureOrder == 0 {
		ip.QuadratureOrder = 2
	}
	if len(strings.Fields(ip.Expression)) == 0 {
		err = fmt.Errorf("problem %q has no expression", ip.Title)
	}
	return
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t= Dimension\n", ip.Dimension)
	fmt.Printf("%8.5g\t\t= Frequency\n", ip.Frequency)
	fmt.Printf("[%d]\t\t\t= FFTTimeEvals\n", ip.FFTTimeEvals)
	fmt.Printf("[%d]\t\t\t= MaxHarmonic\n", ip.MaxHarmonic)
	fmt.Printf("[%d]\t\t\t= QuadratureOrder\n", ip.QuadratureOrder)
	if len(ip.MeshFile) != 0 {
		fmt.Printf("\"%s\"\t= MeshFile\n", ip.MeshFile)
	}
	fmt.Printf("[%d]\t\t\t= Nodes\n", len(ip.Nodes))
	for _, r := range sortedInts(ip.Regions) {
		fmt.Printf("Regions[%d] = %d %s elements\n", r, len(ip.Regions[r].Elements), ip.Regions[r].Type)
	}
	for _, key := range sortedStrings(ip.Parameters) {
		fmt.Printf("Parameters[%s] = %v\n", key, ip.Parameters[key])
	}
	for _, key := range sortedStrings(ip.Fields) {
		fmt.Printf("Fields[%s] = %v\n", key, ip.Fields[key])
	}
	fmt.Printf("\"%s\"\t= Expression\n", ip.Expression)
}

func sortedInts[V any](m map[int]V) (keys []int) {
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return
}

func sortedStrings[V any](m map[string]V) (keys []string) {
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

// Mesh reads MeshFile when set, otherwise builds the mesh from the node and
// region lists. Missing coordinates are zero.
func (ip *InputParameters) Mesh() (m *geometry.Mesh, err error) {
	if len(ip.MeshFile) != 0 {
		var su2 *readfiles.SU2Mesh
		if su2, err = readfiles.ReadSU2(ip.MeshFile, false); err != nil {
			return
		}
		m = su2.Mesh
		return
	}
	nodes := utils.NewMatrix(len(ip.Nodes), 3)
	for i, xyz := range ip.Nodes {
		if len(xyz) > 3 {
			err = fmt.Errorf("node %d has %d coordinates", i, len(xyz))
			return
		}
		for d, x := range xyz {
			nodes.Set(i, d, x)
		}
	}
	if m, err = geometry.NewMesh(ip.Dimension, nodes); err != nil {
		return
	}
	for _, r := range sortedInts(ip.Regions) {
		var (
			ri = ip.Regions[r]
			et types.ElementType
		)
		if et, err = types.NewElementType(ri.Type); err != nil {
			err = fmt.Errorf("region %d: %w", r, err)
			return
		}
		nv := et.CountVertices()
		conn := utils.NewIndexMat(len(ri.Elements), nv)
		for k, vertices := range ri.Elements {
			if len(vertices) != nv {
				err = fmt.Errorf("region %d element %d has %d vertices, %s needs %d: %w",
					r, k, len(vertices), et, nv, utils.ErrDimensionMismatch)
				return
			}
			for v, node := range vertices {
				conn.Set(k, v, node)
			}
		}
		if err = m.AddRegion(types.DisjointRegion(r), et, conn); err != nil {
			return
		}
	}
	return
}

// RawParameters registers the scalar parameters per region and harmonic.
func (ip *InputParameters) RawParameters() (params map[string]*parameter.RawParameter, err error) {
	params = make(map[string]*parameter.RawParameter, len(ip.Parameters))
	for _, name := range sortedStrings(ip.Parameters) {
		p := parameter.NewRawParameter(name, 1, 1)
		for region, harms := range ip.Parameters[name] {
			for h, val := range harms {
				if err = p.SetConstant(types.DisjointRegion(region), h, val); err != nil {
					return
				}
			}
		}
		params[name] = p
	}
	return
}

// FieldValues binds the scalar fields, one nodal value per mesh node and
// harmonic.
func (ip *InputParameters) FieldValues(numNodes int) (fields map[string]*field.Field, err error) {
	fields = make(map[string]*field.Field, len(ip.Fields))
	for _, name := range sortedStrings(ip.Fields) {
		harms := sortedInts(ip.Fields[name])
		if len(harms) == 0 {
			err = fmt.Errorf("field %q has no values", name)
			return
		}
		if harms[0] < 1 {
			err = fmt.Errorf("field %q: harmonic %d, harmonics are numbered from 1", name, harms[0])
			return
		}
		f := field.NewField(name, 1, harms...)
		for _, h := range harms {
			vals := ip.Fields[name][h]
			if len(vals) != numNodes {
				err = fmt.Errorf("field %q harmonic %d has %d values for %d nodes: %w",
					name, h, len(vals), numNodes, utils.ErrDimensionMismatch)
				return
			}
			if err = f.SetValues(h, utils.NewMatrix(len(vals), 1, vals)); err != nil {
				return
			}
		}
		fields[name] = f
	}
	return
}

// EvaluationRegions are the Evaluate regions, or every region of the mesh.
func (ip *InputParameters) EvaluationRegions(m *geometry.Mesh) (regions []types.DisjointRegion) {
	if len(ip.Evaluate) == 0 {
		return m.Regions()
	}
	for _, r := range ip.Evaluate {
		regions = append(regions, types.DisjointRegion(r))
	}
	return types.SortRegions(regions)
}
