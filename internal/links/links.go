// Package links maintains identifier link sets: the ordered id slices that
// are the only storage for note, tag and lecture relationships.
package links

// Identifiable is anything that can be found by identifier in a link set.
type Identifiable interface {
	Identifier() string
}

// Toggle removes id from set when present, otherwise appends it.
// The input is never mutated and an empty id yields an unchanged copy.
func Toggle(set []string, id string) []string {
	out := make([]string, 0, len(set)+1)
	if id == "" {
		return append(out, set...)
	}
	found := false
	for _, v := range set {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

// Contains reports whether id is in set.
func Contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns set with id appended unless already present.
func Add(set []string, id string) []string {
	if id == "" || Contains(set, id) {
		return append([]string(nil), set...)
	}
	return Toggle(set, id)
}

// Normalize returns set without empty ids and later repeats, keeping the
// first occurrence order.
func Normalize(set []string) []string {
	out := make([]string, 0, len(set))
	for _, id := range set {
		if id != "" && !Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// Resolve returns the members of all whose identifier appears in set, in the
// order of all. Identifiers with no matching entity are skipped.
func Resolve[T Identifiable](all []T, set []string) []T {
	if len(set) == 0 {
		return []T{}
	}
	want := make(map[string]struct{}, len(set))
	for _, id := range set {
		want[id] = struct{}{}
	}
	out := make([]T, 0, len(set))
	for _, e := range all {
		if _, ok := want[e.Identifier()]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Dangling returns the ids in set that do not resolve against all.
func Dangling[T Identifiable](all []T, set []string) []string {
	have := make(map[string]struct{}, len(all))
	for _, e := range all {
		have[e.Identifier()] = struct{}{}
	}
	var out []string
	for _, id := range set {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
