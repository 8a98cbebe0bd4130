package multiharmonic

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/james-bowman/sparse"
	"go.uber.org/multierr"

	"github.com/notargets/weakform/selector"
	"github.com/notargets/weakform/types"
	"github.com/notargets/weakform/utils"
)

// Interpolator evaluates a quantity, all harmonics at once, on the batch the
// selector is positioned on. refCoords are flat reference coordinates, three
// per point.
type Interpolator interface {
	InterpolateBatch(s *selector.ElementSelector, refCoords []float64) (Harmonics, error)
}

// BatchResult is the value of one batch together with the region-local
// element numbers of its rows.
type BatchResult struct {
	Region   types.DisjointRegion
	BatchID  uuid.UUID
	Elements utils.IndexMat
	Values   Harmonics
}

// Result holds the per batch values of an InterpolateAll call, in the batch
// order of the selector.
type Result struct {
	NumPoints int
	Batches   []BatchResult
}

// Harmonics lists the harmonics that are non zero on at least one batch.
func (r *Result) Harmonics() (harms []int) {
	var (
		seen = make(map[int]bool)
	)
	for _, b := range r.Batches {
		for _, h := range b.Values.Numbers() {
			if !seen[h] {
				seen[h] = true
				harms = append(harms, h)
			}
		}
	}
	sort.Ints(harms)
	return
}

// Collect scatters harmonic h of every batch of a region into a sparse
// (numElements x NumPoints) matrix whose rows are the region-local element
// numbers. Elements not covered by any batch stay empty.
func (r *Result) Collect(region types.DisjointRegion, h, numElements int) (C *sparse.CSR, err error) {
	var (
		dok = sparse.NewDOK(numElements, r.NumPoints)
	)
	for _, b := range r.Batches {
		if b.Region != region || !b.Values.Has(h) {
			continue
		}
		M := b.Values.Get(h)
		for i, k := range b.Elements.Values() {
			if k < 0 || k >= numElements {
				err = fmt.Errorf("element %d of region %d outside of %d rows: %w",
					k, region, numElements, utils.ErrDimensionMismatch)
				return
			}
			for p := 0; p < r.NumPoints; p++ {
				if v := M.At(i, p); v != 0 {
					dok.Set(k, p, v)
				}
			}
		}
	}
	C = dok.ToCSR()
	return
}

// Driver evaluates an Interpolator on every batch of a selector, spreading
// the batches over Workers goroutines.
type Driver struct {
	Workers int
	logger  *slog.Logger
}

func NewDriver(workers int) (d *Driver) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Driver{
		Workers: workers,
		logger:  slog.Default().With(slog.String("component", "multiharmonic")),
	}
}

// InterpolateAll evaluates q on all batches. Batches are independent, the
// first error met aborts the result.
func (d *Driver) InterpolateAll(q Interpolator, s *selector.ElementSelector, refCoords []float64) (res *Result, err error) {
	var (
		np    = len(refCoords) / 3
		parts = s.Split(d.Workers)
		order = make(map[uuid.UUID]int, s.CountBatches())
		wg    = sync.WaitGroup{}
		errs  = make([]error, len(parts))
	)
	if len(refCoords)%3 != 0 {
		err = fmt.Errorf("evaluation coordinates must come in triplets, have %d values: %w",
			len(refCoords), utils.ErrDimensionMismatch)
		return
	}
	for i, b := range s.Batches() {
		order[b.ID] = i
	}
	res = &Result{
		NumPoints: np,
		Batches:   make([]BatchResult, s.CountBatches()),
	}
	d.logger.Debug("interpolating",
		slog.Int("batches", s.CountBatches()),
		slog.Int("workers", len(parts)),
		slog.Int("points", np))
	for n, part := range parts {
		wg.Add(1)
		go func(n int, part *selector.ElementSelector) {
			defer wg.Done()
			for part.Next() {
				H, err := q.InterpolateBatch(part, refCoords)
				if err != nil {
					errs[n] = fmt.Errorf("region %d, batch %s: %w", part.Region(), part.BatchID(), err)
					return
				}
				res.Batches[order[part.BatchID()]] = BatchResult{
					Region:   part.Region(),
					BatchID:  part.BatchID(),
					Elements: part.Elements(),
					Values:   H,
				}
			}
		}(n, part)
	}
	wg.Wait()
	if err = multierr.Combine(errs...); err != nil {
		d.logger.Debug("interpolation failed", slog.String("error", err.Error()))
		res = nil
	}
	return
}

// TimeSamples evaluates q on all batches and returns, per batch, the
// (N x elements*points) time samples of one period.
func (d *Driver) TimeSamples(q Interpolator, s *selector.ElementSelector, refCoords []float64, N int) (samples []utils.Matrix, res *Result, err error) {
	if res, err = d.InterpolateAll(q, s, refCoords); err != nil {
		return
	}
	samples = make([]utils.Matrix, len(res.Batches))
	for i, b := range res.Batches {
		if samples[i], err = TimeDomain(b.Values, N, b.Elements.Count(), res.NumPoints); err != nil {
			return
		}
	}
	return
}
