package synchronizer

import (
	"fmt"
	"math"

	"github.com/aretw0/lockstep/pkg/domain"
)

// Congruence is the residue class step ≡ Residue (mod Modulus).
type Congruence struct {
	Residue int `json:"residue"`
	Modulus int `json:"modulus"`
}

// Normalize returns c with Residue reduced into [0, Modulus).
func (c Congruence) Normalize() Congruence {
	c.Residue = mod(c.Residue, c.Modulus)
	return c
}

// Holds reports whether step belongs to the class.
func (c Congruence) Holds(step int) bool {
	return mod(step-c.Residue, c.Modulus) == 0
}

func (c Congruence) String() string {
	return fmt.Sprintf("≡ %d (mod %d)", c.Residue, c.Modulus)
}

// Merge combines two congruences into one whose solutions satisfy both.
// It searches increasing multiples of the larger modulus for a value that
// also satisfies the smaller congruence; bound caps the number of candidates
// tried, zero meaning the smaller modulus (which always suffices).
//
// Incompatible pairs are rejected up front by the gcd test with
// domain.ErrNoCommonSolution. Running out of the search bound therefore means
// only that a solution exists beyond it, and Merge returns domain.ErrBoundExceeded.
func Merge(a, b Congruence, bound int) (Congruence, error) {
	if a.Modulus < 1 || b.Modulus < 1 {
		return Congruence{}, fmt.Errorf("invalid modulus in %v, %v", a, b)
	}
	a, b = a.Normalize(), b.Normalize()
	if a.Modulus < b.Modulus {
		a, b = b, a
	}

	g := GCD(a.Modulus, b.Modulus)
	if (a.Residue-b.Residue)%g != 0 {
		return Congruence{}, fmt.Errorf("%w: %v and %v", domain.ErrNoCommonSolution, a, b)
	}

	l, err := lcm(a.Modulus, b.Modulus)
	if err != nil {
		return Congruence{}, err
	}

	if bound <= 0 {
		bound = b.Modulus
	}
	candidate := a.Residue
	for i := 0; i < bound; i++ {
		if b.Holds(candidate) {
			return Congruence{Residue: candidate % l, Modulus: l}, nil
		}
		candidate += a.Modulus
	}
	return Congruence{}, fmt.Errorf("%w: merging %v and %v after %d candidates", domain.ErrBoundExceeded, a, b, bound)
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	q := a / GCD(a, b)
	if q > math.MaxInt/b {
		return 0, fmt.Errorf("%w: lcm(%d, %d) overflows", domain.ErrBoundExceeded, a, b)
	}
	return q * b, nil
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
