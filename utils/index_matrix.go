package utils

import (
	"fmt"
	"strings"
)

// IndexMat is a dense matrix of int stored ROW-MAJOR, i.e. as
// [row1 row2 row3 ...]. Copies of an IndexMat value share the same buffer,
// only Copy duplicates the values.
type IndexMat struct {
	nr, nc int
	values []int
}

func NewIndexMat(nr, nc int) (I IndexMat) {
	if nr < 0 || nc < 0 {
		panic(fmt.Errorf("negative dimensions: nr, nc = %d, %d", nr, nc))
	}
	return IndexMat{nr: nr, nc: nc, values: make([]int, nr*nc)}
}

func NewIndexMatConst(nr, nc, val int) (I IndexMat) {
	I = NewIndexMat(nr, nc)
	for i := range I.values {
		I.values[i] = val
	}
	return
}

// NewIndexMatFrom takes the values in row-major order. The slice is copied.
func NewIndexMatFrom(nr, nc int, vals []int) (I IndexMat) {
	if len(vals) != nr*nc {
		err := fmt.Errorf("mismatch in allocation: NewIndexMatFrom nr,nc = %v,%v, len(vals) = %v: %w",
			nr, nc, len(vals), ErrDimensionMismatch)
		panic(err)
	}
	I = NewIndexMat(nr, nc)
	copy(I.values, vals)
	return
}

// NewIndexMatRange fills the matrix with [init init+step init+2*step ...].
func NewIndexMatRange(nr, nc, init, step int) (I IndexMat) {
	I = NewIndexMat(nr, nc)
	for i := range I.values {
		I.values[i] = init + i*step
	}
	return
}

// ConcatenateRows stacks the inputs vertically. Empty inputs are skipped.
func ConcatenateRows(input ...IndexMat) (I IndexMat, err error) {
	var (
		nr, nc int
		first  = true
	)
	for _, m := range input {
		if m.Count() == 0 {
			continue
		}
		if first {
			nc = m.nc
			first = false
		}
		if m.nc != nc {
			err = fmt.Errorf("cannot concatenate %d columns with %d columns: %w", m.nc, nc, ErrDimensionMismatch)
			return
		}
		nr += m.nr
	}
	I = NewIndexMat(nr, nc)
	var offset int
	for _, m := range input {
		if m.Count() == 0 {
			continue
		}
		copy(I.values[offset:], m.values)
		offset += m.Count()
	}
	return
}

func (I IndexMat) CountRows() int    { return I.nr }
func (I IndexMat) CountColumns() int { return I.nc }
func (I IndexMat) Count() int        { return I.nr * I.nc }
func (I IndexMat) Dims() (r, c int)  { return I.nr, I.nc }

// Values exposes the raw row-major buffer, no copy is made.
func (I IndexMat) Values() []int { return I.values }

func (I IndexMat) At(i, j int) int { return I.values[i*I.nc+j] }

func (I IndexMat) Set(i, j, val int) IndexMat { // Changes receiver
	I.values[i*I.nc+j] = val
	return I
}

// Row returns a view on row i.
func (I IndexMat) Row(i int) []int {
	return I.values[i*I.nc : (i+1)*I.nc]
}

// Reshape reinterprets the same buffer as an m x n matrix. The result aliases
// the receiver's values.
func (I IndexMat) Reshape(m, n int) (R IndexMat, err error) {
	if m < 0 || n < 0 || m*n != I.Count() {
		err = fmt.Errorf("cannot reshape %dx%d to %dx%d: %w", I.nr, I.nc, m, n, ErrDimensionMismatch)
		return
	}
	R = IndexMat{nr: m, nc: n, values: I.values}
	return
}

// CountPositive counts the values that are positive or zero.
func (I IndexMat) CountPositive() (count int) {
	for _, val := range I.values {
		if val >= 0 {
			count++
		}
	}
	return
}

func (I IndexMat) CountOccurences(value int) (count int) {
	for _, val := range I.values {
		if val == value {
			count++
		}
	}
	return
}

// RemoveValue returns a column vector of every entry not equal to toRemove,
// in storage order.
func (I IndexMat) RemoveValue(toRemove int) (R IndexMat) {
	R = NewIndexMat(I.Count()-I.CountOccurences(toRemove), 1)
	var ind int
	for _, val := range I.values {
		if val != toRemove {
			R.values[ind] = val
			ind++
		}
	}
	return
}

// CountAllOccurences returns counts[v] = number of entries equal to v, for v
// in [0, maxVal]. Entries outside that range are ignored, a negative maxVal
// gives an empty histogram.
func (I IndexMat) CountAllOccurences(maxVal int) (counts []int) {
	if maxVal < 0 {
		return []int{}
	}
	counts = make([]int, maxVal+1)
	for _, val := range I.values {
		if val >= 0 && val <= maxVal {
			counts[val]++
		}
	}
	return
}

// FindAllOccurences returns, for every v in [0, maxVal], the flat indexes at
// which v appears.
func (I IndexMat) FindAllOccurences(maxVal int) (found [][]int) {
	var (
		counts = I.CountAllOccurences(maxVal)
	)
	found = make([][]int, len(counts))
	for v, c := range counts {
		found[v] = make([]int, 0, c)
	}
	for i, val := range I.values {
		if val >= 0 && val <= maxVal {
			found[val] = append(found[val], i)
		}
	}
	return
}

func (I IndexMat) errorIfEmpty(op string) error {
	if I.Count() == 0 {
		return fmt.Errorf("%s on a %dx%d index matrix: %w", op, I.nr, I.nc, ErrEmptyContainer)
	}
	return nil
}

func (I IndexMat) Sum() (sum int, err error) {
	if err = I.errorIfEmpty("sum"); err != nil {
		return
	}
	for _, val := range I.values {
		sum += val
	}
	return
}

func (I IndexMat) MinMax() (min, max int, err error) {
	if err = I.errorIfEmpty("minmax"); err != nil {
		return
	}
	min, max = I.values[0], I.values[0]
	for _, val := range I.values[1:] {
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
	}
	return
}

func (I IndexMat) Max() (max int, err error) {
	_, max, err = I.MinMax()
	return
}

func (I IndexMat) Copy() (R IndexMat) { // Does not change receiver
	R = NewIndexMat(I.nr, I.nc)
	copy(R.values, I.values)
	return
}

func (I IndexMat) Transpose() (R IndexMat) { // Does not change receiver
	R = NewIndexMat(I.nc, I.nr)
	for i := 0; i < I.nr; i++ {
		for j := 0; j < I.nc; j++ {
			R.values[j*I.nr+i] = I.values[i*I.nc+j]
		}
	}
	return
}

// DuplicateAllRowsTogether turns [row1; row2; ...] into
// [row1; row2; ...; row1; row2; ...], n blocks in total.
func (I IndexMat) DuplicateAllRowsTogether(n int) (R IndexMat) {
	R = NewIndexMat(I.nr*n, I.nc)
	for d := 0; d < n; d++ {
		copy(R.values[d*I.Count():], I.values)
	}
	return
}

// DuplicateRowsOneByOne turns [row1; row2; ...] into
// [row1; row1; ...; row2; row2; ...], each row n times.
func (I IndexMat) DuplicateRowsOneByOne(n int) (R IndexMat) {
	R = NewIndexMat(I.nr*n, I.nc)
	for i := 0; i < I.nr; i++ {
		row := I.Row(i)
		for d := 0; d < n; d++ {
			copy(R.values[(i*n+d)*I.nc:], row)
		}
	}
	return
}

// DuplicateAllColsTogether turns [c1 c2 ...] into [c1 c2 ... c1 c2 ...].
func (I IndexMat) DuplicateAllColsTogether(n int) (R IndexMat) {
	R = NewIndexMat(I.nr, I.nc*n)
	for i := 0; i < I.nr; i++ {
		row := I.Row(i)
		for d := 0; d < n; d++ {
			copy(R.values[i*R.nc+d*I.nc:], row)
		}
	}
	return
}

// DuplicateColsOneByOne turns [c1 c2 ...] into [c1 c1 ... c2 c2 ...].
func (I IndexMat) DuplicateColsOneByOne(n int) (R IndexMat) {
	R = NewIndexMat(I.nr, I.nc*n)
	for i := 0; i < I.nr; i++ {
		for j := 0; j < I.nc; j++ {
			val := I.values[i*I.nc+j]
			for d := 0; d < n; d++ {
				R.values[i*R.nc+j*n+d] = val
			}
		}
	}
	return
}

// ExtractRows gathers the selected rows in the given order, duplicates allowed.
func (I IndexMat) ExtractRows(selected []int) (R IndexMat) {
	R = NewIndexMat(len(selected), I.nc)
	for iNew, i := range selected {
		if i < 0 || i >= I.nr {
			panic(fmt.Errorf("row index %d out of bounds, max_bounds = %d", i, I.nr-1))
		}
		copy(R.values[iNew*I.nc:], I.Row(i))
	}
	return
}

// ExtractCols gathers the selected columns in the given order, duplicates allowed.
func (I IndexMat) ExtractCols(selected []int) (R IndexMat) {
	R = NewIndexMat(I.nr, len(selected))
	for jNew, j := range selected {
		if j < 0 || j >= I.nc {
			panic(fmt.Errorf("column index %d out of bounds, max_bounds = %d", j, I.nc-1))
		}
		for i := 0; i < I.nr; i++ {
			R.values[i*R.nc+jNew] = I.values[i*I.nc+j]
		}
	}
	return
}

// Select returns a column vector of the entries whose mask value equals
// selectIf. The mask is indexed like the flat row-major buffer.
func (I IndexMat) Select(sel []bool, selectIf bool) (R IndexMat) {
	if len(sel) != I.Count() {
		panic(fmt.Errorf("selection mask has %d entries for %d values: %w", len(sel), I.Count(), ErrDimensionMismatch))
	}
	var count int
	for _, s := range sel {
		if s == selectIf {
			count++
		}
	}
	R = NewIndexMat(count, 1)
	var ind int
	for i, s := range sel {
		if s == selectIf {
			R.values[ind] = I.values[i]
			ind++
		}
	}
	return
}

func (I IndexMat) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matrix size is %dx%d\n", I.nr, I.nc)
	for i := 0; i < I.nr; i++ {
		for j, val := range I.Row(i) {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d", val)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (I IndexMat) Print() { fmt.Print(I.String()) }
