package special

import "fmt"

// Table holds one complex value per (degree l, order m) for l in [0, n),
// m in [-l, l]. It is stored as an n x (2n+1) rectangle where row l is only
// valid for columns 0..2l (column m+l); the remaining columns are padding.
// Access through At/Set/Row never touches padding, and Validate checks that
// padding stays zero.
type Table struct {
	n    int
	data []complex128
}

// NewTable allocates a zero table of truncation order n.
func NewTable(n int) *Table {
	if n < 1 {
		panic("special: truncation order must be positive")
	}
	return &Table{n: n, data: make([]complex128, n*(2*n+1))}
}

// Order is the truncation order n.
func (t *Table) Order() int { return t.n }

// Width is the padded row width 2n+1.
func (t *Table) Width() int { return 2*t.n + 1 }

// ValidRange returns the valid column range [0, 2l] of row l.
func (t *Table) ValidRange(l int) (lo, hi int) {
	return 0, 2 * l
}

func (t *Table) index(l, m int) int {
	if l < 0 || l >= t.n || m < -l || m > l {
		panic(fmt.Sprintf("special: (l=%d, m=%d) outside table of order %d", l, m, t.n))
	}
	return l*(2*t.n+1) + m + l
}

func (t *Table) At(l, m int) complex128 { return t.data[t.index(l, m)] }

func (t *Table) Set(l, m int, v complex128) { t.data[t.index(l, m)] = v }

// Row returns the 2l+1 valid entries of degree l, indexed by m+l.
// The slice aliases the table.
func (t *Table) Row(l int) []complex128 {
	start := t.index(l, -l)
	return t.data[start : start+2*l+1]
}

// SetRow copies a degree-l harmonic vector into row l.
func (t *Table) SetRow(l int, v []complex128) {
	if len(v) != 2*l+1 {
		panic("special: row length mismatch")
	}
	copy(t.Row(l), v)
}

// Sum adds every valid entry.
func (t *Table) Sum() complex128 {
	var s complex128
	for l := 0; l < t.n; l++ {
		for _, v := range t.Row(l) {
			s += v
		}
	}
	return s
}

// RowDot is sum_m t[l,m] * o[l,m].
func (t *Table) RowDot(l int, o *Table) complex128 {
	a, b := t.Row(l), o.Row(l)
	var s complex128
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// MulSum is sum over all valid (l, m) of t[l,m] * o[l,m].
func (t *Table) MulSum(o *Table) complex128 {
	if o.n != t.n {
		panic("special: table order mismatch")
	}
	var s complex128
	for l := 0; l < t.n; l++ {
		s += t.RowDot(l, o)
	}
	return s
}

// Scaled returns a new table with every entry multiplied by c.
func (t *Table) Scaled(c complex128) *Table {
	out := NewTable(t.n)
	for i, v := range t.data {
		out.data[i] = v * c
	}
	return out
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	out := NewTable(t.n)
	copy(out.data, t.data)
	return out
}

// Validate reports an error if any padding entry is non-zero.
func (t *Table) Validate() error {
	w := 2*t.n + 1
	for l := 0; l < t.n; l++ {
		for c := 2*l + 1; c < w; c++ {
			if v := t.data[l*w+c]; v != 0 {
				return fmt.Errorf("%w: row %d column %d holds %v", ErrPadding, l, c, v)
			}
		}
	}
	return nil
}

// Dense returns the padded n x (2n+1) matrix, one row per degree. Padding
// entries are zero; consumers that need the valid range use ValidRange.
func (t *Table) Dense() [][]complex128 {
	w := 2*t.n + 1
	out := make([][]complex128, t.n)
	for l := range out {
		out[l] = append([]complex128(nil), t.data[l*w:(l+1)*w]...)
	}
	return out
}
