package selector

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/notargets/weakform/geometry"
	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// Batch is a group of elements of a single disjoint region evaluated together.
// ID identifies the batch contents and is part of every evaluation cache key.
type Batch struct {
	Region   types.DisjointRegion
	Type     types.ElementType
	Elements utils.IndexMat // column vector of region-local element numbers
	ID       uuid.UUID
}

func (b Batch) CountElements() int { return b.Elements.Count() }

// ElementSelector iterates over the element batches of a set of disjoint
// regions. Operation nodes only read from it.
type ElementSelector struct {
	mesh     *geometry.Mesh
	regions  []types.DisjointRegion
	harmonic int
	batches  []Batch
	current  int
}

// NewElementSelector splits every region into batches of at most batchSize
// elements, batchSize <= 0 meaning one batch per region.
func NewElementSelector(mesh *geometry.Mesh, regions []types.DisjointRegion, batchSize int) (s *ElementSelector, err error) {
	s = &ElementSelector{
		mesh:    mesh,
		regions: types.SortRegions(regions),
		current: -1,
	}
	for _, r := range s.regions {
		var eb *geometry.ElementBlock
		if eb, err = mesh.Block(r); err != nil {
			return nil, err
		}
		ne := eb.CountElements()
		if ne == 0 {
			continue
		}
		pm := utils.NewPartitionMapBySize(ne, batchSize)
		for bn := 0; bn < pm.ParallelDegree; bn++ {
			kMin, kMax := pm.GetBucketRange(bn)
			s.batches = append(s.batches, Batch{
				Region:   r,
				Type:     eb.Type,
				Elements: utils.NewIndexMatRange(kMax-kMin, 1, kMin, 1),
				ID:       uuid.New(),
			})
		}
	}
	return
}

// NewSingle builds a selector holding one batch with the given region-local
// elements. It is already positioned on that batch.
func NewSingle(mesh *geometry.Mesh, region types.DisjointRegion, elems utils.IndexMat) (s *ElementSelector, err error) {
	var eb *geometry.ElementBlock
	if eb, err = mesh.Block(region); err != nil {
		return
	}
	if elems.Count() > 0 {
		min, max, _ := elems.MinMax()
		if min < 0 || max >= eb.CountElements() {
			err = fmt.Errorf("elements [%d,%d] out of range for region %d with %d elements",
				min, max, region, eb.CountElements())
			return
		}
	}
	col, _ := elems.Reshape(elems.Count(), 1)
	s = &ElementSelector{
		mesh:    mesh,
		regions: []types.DisjointRegion{region},
		batches: []Batch{{
			Region:   region,
			Type:     eb.Type,
			Elements: col,
			ID:       uuid.New(),
		}},
		current: 0,
	}
	return
}

// Next advances to the next batch and reports whether there is one.
func (s *ElementSelector) Next() bool {
	if s.current < len(s.batches) {
		s.current++
	}
	return s.current < len(s.batches)
}

// Reset positions the selector before its first batch.
func (s *ElementSelector) Reset() { s.current = -1 }

func (s *ElementSelector) batch() Batch {
	if s.current < 0 || s.current >= len(s.batches) {
		panic(fmt.Errorf("element selector is not positioned on a batch (%d of %d), call Next first",
			s.current, len(s.batches)))
	}
	return s.batches[s.current]
}

func (s *ElementSelector) Batch() Batch                    { return s.batch() }
func (s *ElementSelector) Region() types.DisjointRegion    { return s.batch().Region }
func (s *ElementSelector) ElementType() types.ElementType  { return s.batch().Type }
func (s *ElementSelector) Elements() utils.IndexMat        { return s.batch().Elements }
func (s *ElementSelector) CountElements() int              { return s.batch().CountElements() }
func (s *ElementSelector) BatchID() uuid.UUID              { return s.batch().ID }
func (s *ElementSelector) Mesh() *geometry.Mesh            { return s.mesh }
func (s *ElementSelector) Regions() []types.DisjointRegion { return s.regions }
func (s *ElementSelector) CountBatches() int               { return len(s.batches) }
func (s *ElementSelector) Batches() []Batch                { return s.batches }

// Harmonic is the harmonic requested by the caller, 0 meaning all of them.
func (s *ElementSelector) Harmonic() int { return s.harmonic }

// ForHarmonic returns a copy of the selector restricted to harmonic h. The
// copy shares the batches and starts before the first one.
func (s *ElementSelector) ForHarmonic(h int) *ElementSelector {
	c := *s
	c.harmonic = h
	c.current = -1
	return &c
}

// Split distributes the batches round robin over n selectors so that each can
// be walked by its own goroutine. Batch IDs are kept.
func (s *ElementSelector) Split(n int) (parts []*ElementSelector) {
	if n < 1 {
		n = 1
	}
	if n > len(s.batches) && len(s.batches) > 0 {
		n = len(s.batches)
	}
	parts = make([]*ElementSelector, n)
	for i := range parts {
		parts[i] = &ElementSelector{
			mesh:     s.mesh,
			regions:  s.regions,
			harmonic: s.harmonic,
			current:  -1,
		}
	}
	for i, b := range s.batches {
		parts[i%n].batches = append(parts[i%n].batches, b)
	}
	return
}
