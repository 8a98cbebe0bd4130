package field

import (
	"fmt"
	"sort"
	"sync"

	"github.com/notargets/weakform/utils"
)

// Field holds nodal values, per harmonic, of a quantity interpolated with the
// linear shape functions of the mesh. It is the field collaborator consumed by
// field, derivative, dof and tf nodes.
type Field struct {
	Name       string
	Components int
	// OrientationDependent marks fields whose value depends on the local
	// element orientation (edge or face based shape functions).
	OrientationDependent bool
	mu                   sync.RWMutex
	values               map[int]utils.Matrix // harmonic -> numNodes x Components
}

// NewField declares the field and its harmonics. Values are bound later with
// SetValues.
func NewField(name string, components int, harmonics ...int) (f *Field) {
	if components < 1 {
		panic(fmt.Errorf("field %q needs at least one component", name))
	}
	if len(harmonics) == 0 {
		harmonics = []int{1}
	}
	f = &Field{
		Name:       name,
		Components: components,
		values:     make(map[int]utils.Matrix),
	}
	for _, h := range harmonics {
		if h < 1 {
			panic(fmt.Errorf("field %q: harmonic numbers start at 1, have %d", name, h))
		}
		f.values[h] = utils.Matrix{}
	}
	return
}

// SetValues binds the (numNodes x Components) nodal values of harmonic h,
// declaring the harmonic if needed.
func (f *Field) SetValues(h int, values utils.Matrix) (err error) {
	if h < 1 {
		return fmt.Errorf("field %q: harmonic numbers start at 1, have %d", f.Name, h)
	}
	if _, nc := values.Dims(); nc != f.Components {
		return fmt.Errorf("field %q has %d components, values have %d columns: %w",
			f.Name, f.Components, nc, utils.ErrDimensionMismatch)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[h] = values
	return
}

// Harmonics returns the declared harmonics in increasing order.
func (f *Field) Harmonics() (harms []int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for h := range f.values {
		harms = append(harms, h)
	}
	sort.Ints(harms)
	return
}

func (f *Field) IsHarmonicOne() bool {
	harms := f.Harmonics()
	return len(harms) == 1 && harms[0] == 1
}

func (f *Field) NodalValues(h int) (values utils.Matrix, err error) {
	var ok bool
	f.mu.RLock()
	values, ok = f.values[h]
	f.mu.RUnlock()
	switch {
	case !ok:
		err = fmt.Errorf("field %q has no harmonic %d: %w", f.Name, h, utils.ErrUnresolvedReference)
	case values.IsEmpty():
		err = fmt.Errorf("field %q harmonic %d has no values: %w", f.Name, h, utils.ErrUnresolvedReference)
	}
	return
}
