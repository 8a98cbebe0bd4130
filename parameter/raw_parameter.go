package parameter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// SpaceFunc gives a coefficient component at a physical position.
type SpaceFunc func(x, y, z float64) float64

// Coefficient is the (rows x cols) value of a parameter on one region and for
// one harmonic. A component with a non nil Func varies in space, all others
// take their constant from Values (row-major).
type Coefficient struct {
	Rows, Cols int
	Values     []float64
	Funcs      []SpaceFunc
}

func newCoefficient(rows, cols int) *Coefficient {
	return &Coefficient{
		Rows:   rows,
		Cols:   cols,
		Values: make([]float64, rows*cols),
		Funcs:  make([]SpaceFunc, rows*cols),
	}
}

func (c *Coefficient) IsConstant() bool {
	for _, fn := range c.Funcs {
		if fn != nil {
			return false
		}
	}
	return true
}

func (c *Coefficient) isComponentConstant(row, col int) bool {
	return c.Funcs[row*c.Cols+col] == nil
}

// CoordinateSource lazily supplies the (elements x points) physical x, y and z
// coordinates of the batch being evaluated.
type CoordinateSource func() ([3]utils.Matrix, error)

// RawParameter maps disjoint regions to per-harmonic coefficients.
type RawParameter struct {
	Name       string
	rows, cols int
	mu         sync.RWMutex
	entries    map[types.DisjointRegion]map[int]*Coefficient
}

func NewRawParameter(name string, rows, cols int) (p *RawParameter) {
	if rows < 1 || cols < 1 {
		panic(fmt.Errorf("parameter %q must be at least 1x1, have %dx%d", name, rows, cols))
	}
	return &RawParameter{
		Name:    name,
		rows:    rows,
		cols:    cols,
		entries: make(map[types.DisjointRegion]map[int]*Coefficient),
	}
}

func (p *RawParameter) CountRows() int    { return p.rows }
func (p *RawParameter) CountColumns() int { return p.cols }

func (p *RawParameter) entry(region types.DisjointRegion, h int) *Coefficient {
	harms, ok := p.entries[region]
	if !ok {
		harms = make(map[int]*Coefficient)
		p.entries[region] = harms
	}
	c, ok := harms[h]
	if !ok {
		c = newCoefficient(p.rows, p.cols)
		harms[h] = c
	}
	return c
}

// SetConstant sets the row-major constant value of harmonic h on a region. Any
// space varying component previously set is replaced.
func (p *RawParameter) SetConstant(region types.DisjointRegion, h int, values ...float64) (err error) {
	if h < 1 {
		return fmt.Errorf("parameter %q: harmonic numbers start at 1, have %d", p.Name, h)
	}
	if len(values) != p.rows*p.cols {
		return fmt.Errorf("parameter %q is %dx%d, have %d values: %w",
			p.Name, p.rows, p.cols, len(values), utils.ErrDimensionMismatch)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.entry(region, h)
	copy(c.Values, values)
	for i := range c.Funcs {
		c.Funcs[i] = nil
	}
	return
}

// SetFunction makes component (row, col) of harmonic h vary in space on a region.
func (p *RawParameter) SetFunction(region types.DisjointRegion, h, row, col int, fn SpaceFunc) (err error) {
	if h < 1 {
		return fmt.Errorf("parameter %q: harmonic numbers start at 1, have %d", p.Name, h)
	}
	if row < 0 || row >= p.rows || col < 0 || col >= p.cols {
		return fmt.Errorf("parameter %q is %dx%d, no component (%d,%d): %w",
			p.Name, p.rows, p.cols, row, col, utils.ErrDimensionMismatch)
	}
	if fn == nil {
		return fmt.Errorf("parameter %q: nil space function", p.Name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entry(region, h).Funcs[row*p.cols+col] = fn
	return
}

func (p *RawParameter) Coefficient(region types.DisjointRegion, h int) (c *Coefficient, err error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var ok bool
	if c, ok = p.entries[region][h]; !ok {
		err = fmt.Errorf("parameter %q has no value for harmonic %d on region %d: %w",
			p.Name, h, region, utils.ErrMissingCoefficient)
	}
	return
}

func (p *RawParameter) DefinedOn(region types.DisjointRegion) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.entries[region]
	return ok
}

// Harmonics on a region in increasing order, nil when the region is undefined.
func (p *RawParameter) Harmonics(region types.DisjointRegion) (harms []int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for h := range p.entries[region] {
		harms = append(harms, h)
	}
	sort.Ints(harms)
	return
}

func (p *RawParameter) IsConstant(region types.DisjointRegion, h int) (isConst bool, err error) {
	var c *Coefficient
	if c, err = p.Coefficient(region, h); err != nil {
		return
	}
	return c.IsConstant(), nil
}

// IsHarmonicOne reports whether only the constant harmonic is set on every
// given region. Undefined regions make it false.
func (p *RawParameter) IsHarmonicOne(regions []types.DisjointRegion) bool {
	for _, r := range regions {
		harms := p.Harmonics(r)
		if len(harms) != 1 || harms[0] != 1 {
			return false
		}
	}
	return true
}

// ConstantValue returns the value of component (row, col) when it is the same
// space independent constant harmonic 1 on all given regions.
func (p *RawParameter) ConstantValue(regions []types.DisjointRegion, row, col int) (val float64, ok bool) {
	if len(regions) == 0 || !p.IsHarmonicOne(regions) {
		return 0, false
	}
	for i, r := range regions {
		c, err := p.Coefficient(r, 1)
		if err != nil || !c.isComponentConstant(row, col) {
			return 0, false
		}
		v := c.Values[row*c.Cols+col]
		if i > 0 && v != val {
			return 0, false
		}
		val = v
	}
	return val, true
}

// Evaluate returns component (row, col) of harmonic h on a region as an
// (ne x np) matrix. Coordinates are only requested for space varying values.
func (p *RawParameter) Evaluate(region types.DisjointRegion, h, row, col, ne, np int,
	coords CoordinateSource) (R utils.Matrix, err error) {
	var (
		c *Coefficient
		X [3]utils.Matrix
	)
	if row < 0 || row >= p.rows || col < 0 || col >= p.cols {
		err = fmt.Errorf("parameter %q is %dx%d, no component (%d,%d): %w",
			p.Name, p.rows, p.cols, row, col, utils.ErrDimensionMismatch)
		return
	}
	if c, err = p.Coefficient(region, h); err != nil {
		return
	}
	if c.isComponentConstant(row, col) {
		R = utils.NewMatrixConst(ne, np, c.Values[row*c.Cols+col])
		return
	}
	if X, err = coords(); err != nil {
		return
	}
	var (
		fn = c.Funcs[row*c.Cols+col]
		x  = X[0].Data()
		y  = X[1].Data()
		z  = X[2].Data()
	)
	if len(x) != ne*np {
		err = fmt.Errorf("parameter %q: %d coordinates for %dx%d points: %w",
			p.Name, len(x), ne, np, utils.ErrDimensionMismatch)
		return
	}
	R = utils.NewMatrix(ne, np)
	data := R.Data()
	for i := range data {
		data[i] = fn(x[i], y[i], z[i])
	}
	return
}

// Regions on which the parameter is defined, sorted.
func (p *RawParameter) Regions() (regions []types.DisjointRegion) {
	p.mu.RLock()
	for r := range p.entries {
		regions = append(regions, r)
	}
	p.mu.RUnlock()
	return types.SortRegions(regions)
}
