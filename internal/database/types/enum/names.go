package enum

import "fmt"

// lookup resolves a lowercase name against the ordered name table of an enum type.
// The tables below follow the order of the constants they describe.
func lookup[T ~int](kind, s string, names []string) (T, error) {
	for i, name := range names {
		if name == s {
			return T(i), nil
		}
	}

	return 0, fmt.Errorf("%q does not belong to %s values", s, kind)
}

// name returns the table entry for v, or a Kind(n) placeholder for values outside the table.
func name[T ~int](kind string, v T, names []string) string {
	if v < 0 || int(v) >= len(names) {
		return fmt.Sprintf("%s(%d)", kind, int(v))
	}

	return names[v]
}

// values returns every constant of an enum type in declaration order.
func values[T ~int](names []string) []T {
	out := make([]T, len(names))
	for i := range names {
		out[i] = T(i)
	}

	return out
}
