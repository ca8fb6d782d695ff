package cycle

// Reduce drops every hit that is an integer multiple of an earlier, smaller hit.
// hits must be sorted ascending. For a token whose goal recurs at multiples of
// its first hit, Reduce returns exactly that first hit.
func Reduce(hits []int) []int {
	var kept []int
	for _, h := range hits {
		if h <= 0 {
			continue
		}
		aliased := false
		for _, k := range kept {
			if h%k == 0 {
				aliased = true
				break
			}
		}
		if !aliased {
			kept = append(kept, h)
		}
	}
	return kept
}

// patternPeriod returns the smallest divisor d of length such that the set of
// residues is invariant under a shift by d.
func patternPeriod(residues map[int]bool, length int) int {
	for d := 1; d < length; d++ {
		if length%d != 0 {
			continue
		}
		invariant := true
		for r := range residues {
			if !residues[(r+d)%length] {
				invariant = false
				break
			}
		}
		if invariant {
			return d
		}
	}
	return length
}
