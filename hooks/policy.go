package hooks

type policyKind int

const (
	passAll policyKind = iota
	passNone
	passFirst
	passIndices
)

// A ParamPolicy controls which domain arguments the pre and post middleware
// of a hook receive. The policy never applies to the wrapped operation
// itself, which always sees the full argument tuple.
type ParamPolicy struct {
	kind    policyKind
	n       int
	indices []int
}

// PassAll forwards the full argument tuple unchanged. It is the zero value
// of ParamPolicy.
func PassAll() ParamPolicy {
	return ParamPolicy{kind: passAll}
}

// PassNone forwards an empty tuple.
func PassNone() ParamPolicy {
	return ParamPolicy{kind: passNone}
}

// PassFirst forwards the first n arguments. Calls with fewer than n
// arguments forward what is there.
func PassFirst(n int) ParamPolicy {
	if n < 0 {
		panic("PassFirst requires a non-negative count")
	}

	return ParamPolicy{kind: passFirst, n: n}
}

// PassIndices forwards a selected, possibly re-ordered subset of the
// arguments. Out-of-range indices forward nil.
func PassIndices(indices ...int) ParamPolicy {
	for _, i := range indices {
		if i < 0 {
			panic("PassIndices requires non-negative indices")
		}
	}

	return ParamPolicy{kind: passIndices, indices: indices}
}

// Apply filters args according to the policy.
func (p ParamPolicy) Apply(args []any) []any {
	switch p.kind {
	case passAll:
		return args
	case passNone:
		return nil
	case passFirst:
		if p.n >= len(args) {
			return args
		}
		return args[:p.n]
	case passIndices:
		selected := make([]any, len(p.indices))
		for i, idx := range p.indices {
			if idx < len(args) {
				selected[i] = args[idx]
			}
		}
		return selected
	}

	panic("unknown param policy")
}
