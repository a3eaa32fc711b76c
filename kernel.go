package volterra

import (
	"fmt"

	"github.com/tphakala/go-volterra/internal/mathutil"
)

// KernelForm selects the storage layout of an identified Volterra kernel.
type KernelForm int

const (
	// FormSymmetric stores the kernel symmetrized under index permutation:
	// every permutation of a delay tuple holds the same coefficient.
	FormSymmetric KernelForm = iota

	// FormTriangular stores coefficients only at non-decreasing delay
	// tuples; every other entry is zero. The stored value folds in the
	// multiplicity of the tuple, so both forms evaluate to the same output.
	FormTriangular
)

// String returns the canonical name of the form.
func (f KernelForm) String() string {
	switch f {
	case FormSymmetric:
		return "symmetric"
	case FormTriangular:
		return "triangular"
	default:
		return fmt.Sprintf("KernelForm(%d)", int(f))
	}
}

// Kernel is a discrete-time Volterra kernel of order Order and memory length
// Memory, stored as a dense tensor with Memory^Order entries in row-major
// order. Tensors are freshly allocated per identification call and share no
// state with other results.
type Kernel struct {
	Order  int
	Memory int
	Form   KernelForm

	// Data holds the tensor entries; Data[i1*Memory^(Order-1) + ... + iOrder]
	// is the coefficient for the delay tuple (i1, ..., iOrder).
	Data []float64
}

// At returns the coefficient at the given delay tuple.
// It panics if the number of indices does not match the kernel order.
func (k *Kernel) At(indices ...int) float64 {
	if len(indices) != k.Order {
		panic(fmt.Sprintf("volterra: kernel of order %d indexed with %d indices", k.Order, len(indices)))
	}
	pos := 0
	for _, idx := range indices {
		pos = pos*k.Memory + idx
	}
	return k.Data[pos]
}

// NbCoeffInKernel returns the number of free coefficients in a kernel of
// order n and memory length m: C(m+n-1, n), the number of non-decreasing
// delay tuples. Both storage forms carry the same number of free parameters.
func NbCoeffInKernel(m, n int) int {
	return mathutil.Binomial(m+n-1, n)
}

// NbCoeffInAllKernels returns the total number of free coefficients in all
// kernels up to order n for memory length m.
func NbCoeffInAllKernels(m, n int) int {
	total := 0
	for order := 1; order <= n; order++ {
		total += NbCoeffInKernel(m, order)
	}
	return total
}

// delayTuples enumerates all non-decreasing delay tuples of length n over
// delays 0..m-1 in lexicographic order. This ordering fixes the column
// layout of basis matrices and the coefficient layout of flat vectors.
func delayTuples(m, n int) [][]int {
	tuples := make([][]int, 0, NbCoeffInKernel(m, n))
	tuple := make([]int, n)
	var rec func(pos, minVal int)
	rec = func(pos, minVal int) {
		if pos == n {
			cp := make([]int, n)
			copy(cp, tuple)
			tuples = append(tuples, cp)
			return
		}
		for v := minVal; v < m; v++ {
			tuple[pos] = v
			rec(pos+1, v)
		}
	}
	rec(0, 0)
	return tuples
}

// tupleMultiplicity returns the number of distinct permutations of a
// non-decreasing delay tuple: n! divided by the factorials of the
// repetition counts.
func tupleMultiplicity(tuple []int) int {
	mult := 1
	run := 1
	placed := 1
	for i := 1; i < len(tuple); i++ {
		placed++
		if tuple[i] == tuple[i-1] {
			run++
		} else {
			run = 1
		}
		// Multinomial built incrementally: C(placed, run) accounts for the
		// positions of the current run among the placed elements.
		mult = mult * placed / run
	}
	return mult
}

// tupleIndex builds a lookup from a delay tuple (in any order) to its
// position in the lexicographic non-decreasing enumeration.
type tupleIndex struct {
	m   int
	n   int
	pos map[string]int
}

func newTupleIndex(m, n int, tuples [][]int) *tupleIndex {
	idx := &tupleIndex{m: m, n: n, pos: make(map[string]int, len(tuples))}
	for i, t := range tuples {
		idx.pos[tupleKey(t)] = i
	}
	return idx
}

func tupleKey(tuple []int) string {
	key := make([]byte, 0, 2*len(tuple))
	for _, v := range tuple {
		key = append(key, byte(v>>8), byte(v))
	}
	return string(key)
}

// VectorToKernel rearranges a flat coefficient vector, laid out over the
// lexicographic non-decreasing delay tuples, into a kernel tensor of order n
// and memory length m in the requested form.
func VectorToKernel(f []float64, m, n int, form KernelForm) (*Kernel, error) {
	nbCoeff := NbCoeffInKernel(m, n)
	if len(f) != nbCoeff {
		return nil, fmt.Errorf("%w: coefficient vector has length %d, kernel of order %d and memory %d needs %d",
			ErrShapeMismatch, len(f), n, m, nbCoeff)
	}

	tuples := delayTuples(m, n)
	index := newTupleIndex(m, n, tuples)

	size := 1
	for i := 0; i < n; i++ {
		size *= m
	}
	kernel := &Kernel{Order: n, Memory: m, Form: form, Data: make([]float64, size)}

	indices := make([]int, n)
	sorted := make([]int, n)
	for pos := 0; pos < size; pos++ {
		p := pos
		for i := n - 1; i >= 0; i-- {
			indices[i] = p % m
			p /= m
		}
		copy(sorted, indices)
		sortInts(sorted)
		i := index.pos[tupleKey(sorted)]
		switch form {
		case FormSymmetric:
			kernel.Data[pos] = f[i]
		case FormTriangular:
			if isNonDecreasing(indices) {
				kernel.Data[pos] = f[i] * float64(tupleMultiplicity(sorted))
			}
		}
	}
	return kernel, nil
}

// KernelVector flattens a kernel back to its free coefficient vector over
// the lexicographic non-decreasing delay tuples. It inverts VectorToKernel
// for both storage forms.
func KernelVector(k *Kernel) []float64 {
	tuples := delayTuples(k.Memory, k.Order)
	f := make([]float64, len(tuples))
	for i, t := range tuples {
		v := k.At(t...)
		if k.Form == FormTriangular {
			v /= float64(tupleMultiplicity(t))
		}
		f[i] = v
	}
	return f
}

func isNonDecreasing(s []int) bool {
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return false
		}
	}
	return true
}

// sortInts is a small insertion sort; delay tuples are short.
func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
