package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major dense float matrix. Interpolation results are laid
// out as (elements x evaluation points). A Matrix with no entries has a nil M.
type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v: %w",
				nr, nc, len(dataO[0]), ErrDimensionMismatch)
			panic(err)
		}
		if nr*nc != 0 {
			m = mat.NewDense(nr, nc, dataO[0])
		}
	} else if nr*nc != 0 {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

func NewMatrixConst(nr, nc int, val float64) (R Matrix) {
	R = NewMatrix(nr, nc)
	data := R.Data()
	for i := range data {
		data[i] = val
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int) {
	if m.M == nil {
		return 0, 0
	}
	return m.M.Dims()
}
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix       { return m.M.T() }
func (m Matrix) RawMatrix() blas64.General {
	if m.M == nil {
		return blas64.General{}
	}
	return m.M.RawMatrix()
}

// Data exposes the row-major buffer, no copy is made.
func (m Matrix) Data() []float64 { return m.RawMatrix().Data }
func (m Matrix) IsEmpty() bool   { return m.M == nil }
func (m Matrix) Count() int {
	nr, nc := m.Dims()
	return nr * nc
}

// Chainable methods (extended)
func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m *Matrix) SetWritable() Matrix {
	m.readOnly = false
	return *m
}

func (m Matrix) IsReadOnly() bool { return m.readOnly }

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, nc)
	copy(R.Data(), m.Data())
	return
}

// Reshape reinterprets the buffer as nr x nc. The result aliases the receiver
// and inherits its read only flag.
func (m Matrix) Reshape(nr, nc int) (R Matrix, err error) { // Does not change receiver
	if nr < 0 || nc < 0 || nr*nc != m.Count() {
		r, c := m.Dims()
		err = fmt.Errorf("cannot reshape %dx%d to %dx%d: %w", r, c, nr, nc, ErrDimensionMismatch)
		return
	}
	R = m
	if nr*nc != 0 {
		R.M = mat.NewDense(nr, nc, m.Data())
	}
	return
}

func (m Matrix) Transpose() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		data   = m.Data()
	)
	R = NewMatrix(nc, nr)
	dataR := R.Data()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			dataR[j*nr+i] = data[i*nc+j]
		}
	}
	return
}

func (m Matrix) SliceRows(I []int) (R Matrix) { // Does not change receiver
	// I should contain a list of row indices into M
	var (
		nr, nc   = m.Dims()
		nI       = len(I)
		maxIndex = nr - 1
	)
	R = NewMatrix(nI, nc)
	for iNewRow, i := range I {
		if i > maxIndex || i < 0 {
			fmt.Printf("index out of bounds: index = %d, max_bounds = %d\n", i, maxIndex)
			panic("unable to subset rows from matrix")
		}
		R.M.SetRow(iNewRow, m.M.RawRowView(i))
	}
	return
}

func (m Matrix) SliceCols(I []int) (R Matrix) { // Does not change receiver
	// I should contain a list of column indices into M
	var (
		nr, nc   = m.Dims()
		maxIndex = nc - 1
		nI       = len(I)
		dataM    = m.Data()
	)
	R = NewMatrix(nr, nI)
	dataR := R.Data()
	for jNewCol, j := range I {
		if j > maxIndex || j < 0 {
			fmt.Printf("index out of bounds: index = %d, max_bounds = %d\n", j, maxIndex)
			panic("unable to subset columns from matrix")
		}
		for i := 0; i < nr; i++ {
			dataR[i*nI+jNewCol] = dataM[i*nc+j]
		}
	}
	return
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkShape(A)
	floats.Add(m.Data(), A.Data())
	return m
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkShape(A)
	floats.Sub(m.Data(), A.Data())
	return m
}

// AddScaled adds a*A to the receiver.
func (m Matrix) AddScaled(a float64, A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkShape(A)
	floats.AddScaled(m.Data(), a, A.Data())
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	m.checkWritable()
	floats.Scale(a, m.Data())
	return m
}

func (m Matrix) AddScalar(a float64) Matrix { // Changes receiver
	m.checkWritable()
	floats.AddConst(a, m.Data())
	return m
}

func (m Matrix) Apply(f func(float64) float64) Matrix { // Changes receiver
	var (
		data = m.Data()
	)
	m.checkWritable()
	for i, val := range data {
		data[i] = f(val)
	}
	return m
}

func (m Matrix) Apply2(f func(float64, float64) float64, A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.Data()
		dataA = A.Data()
	)
	m.checkWritable()
	m.checkShape(A)
	for i, val := range dataM {
		dataM[i] = f(val, dataA[i])
	}
	return m
}

func (m Matrix) POW(p int) Matrix { // Changes receiver
	var (
		data = m.Data()
	)
	m.checkWritable()
	for i, val := range data {
		data[i] = POW(val, p)
	}
	return m
}

func (m Matrix) ElMul(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkShape(A)
	floats.Mul(m.Data(), A.Data())
	return m
}

func (m Matrix) ElDiv(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkShape(A)
	floats.Div(m.Data(), A.Data())
	return m
}

func (m Matrix) Min() (min float64, err error) {
	if m.IsEmpty() {
		err = fmt.Errorf("min of an empty matrix: %w", ErrEmptyContainer)
		return
	}
	return floats.Min(m.Data()), nil
}

func (m Matrix) Max() (max float64, err error) {
	if m.IsEmpty() {
		err = fmt.Errorf("max of an empty matrix: %w", ErrEmptyContainer)
		return
	}
	return floats.Max(m.Data()), nil
}

func (m Matrix) Sum() (sum float64, err error) {
	if m.IsEmpty() {
		err = fmt.Errorf("sum of an empty matrix: %w", ErrEmptyContainer)
		return
	}
	return floats.Sum(m.Data()), nil
}

// EqualApprox compares shapes and values within tol.
func (m Matrix) EqualApprox(A Matrix, tol float64) bool {
	if SameShape(m, A) != nil {
		return false
	}
	return floats.EqualApprox(m.Data(), A.Data(), tol)
}

func (m Matrix) String() string {
	if m.IsEmpty() {
		return "[]"
	}
	return fmt.Sprintf("%v", mat.Formatted(m.M, mat.Squeeze()))
}

// SameShape reports a dimension mismatch between A and B.
func SameShape(A, B Matrix) error {
	var (
		nrA, ncA = A.Dims()
		nrB, ncB = B.Dims()
	)
	if nrA != nrB || ncA != ncB {
		return fmt.Errorf("%dx%d against %dx%d: %w", nrA, ncA, nrB, ncB, ErrDimensionMismatch)
	}
	return nil
}

func (m Matrix) checkShape(A Matrix) {
	if err := SameShape(m, A); err != nil {
		panic(err)
	}
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}
