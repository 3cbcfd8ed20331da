package hooks

import (
	"fmt"
	"strings"
)

// Qualifiers defines the two qualifier strings that split a hook name space
// into the phase before an operation and the phase after it.
type Qualifiers struct {
	Pre  string
	Post string
}

// DefaultQualifiers returns the "pre"/"post" qualifier pair.
func DefaultQualifiers() Qualifiers {
	return Qualifiers{Pre: "pre", Post: "post"}
}

// A QualifiedName identifies one phase of one hook, e.g. {"pre", "save"}.
type QualifiedName struct {
	Qualifier string
	Name      string
}

// String formats the name in its textual form, e.g. "pre:save".
func (n QualifiedName) String() string {
	return n.Qualifier + ":" + n.Name
}

// Valid reports whether the qualifier of the name is one of the two
// qualifiers defined by q.
func (q Qualifiers) Valid(n QualifiedName) bool {
	return n.Qualifier == q.Pre || n.Qualifier == q.Post
}

// Parse parses the textual form "<qualifier>:<name>". Unqualified names and
// names carrying an unknown qualifier are rejected.
func (q Qualifiers) Parse(s string) (QualifiedName, error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return QualifiedName{},
			fmt.Errorf("hook name %q is not qualified", s)
	}

	n := QualifiedName{Qualifier: s[:idx], Name: s[idx+1:]}
	if !q.Valid(n) {
		return QualifiedName{},
			fmt.Errorf("unknown hook qualifier %q in %q", n.Qualifier, s)
	}

	if n.Name == "" {
		return QualifiedName{}, fmt.Errorf("hook name %q is empty", s)
	}

	return n, nil
}

// Expand turns an unqualified name into both of its qualified forms, in
// pre-then-post order.
func (q Qualifiers) Expand(name string) []QualifiedName {
	return []QualifiedName{
		{Qualifier: q.Pre, Name: name},
		{Qualifier: q.Post, Name: name},
	}
}

// PreName qualifies name with the pre qualifier.
func (q Qualifiers) PreName(name string) QualifiedName {
	return QualifiedName{Qualifier: q.Pre, Name: name}
}

// PostName qualifies name with the post qualifier.
func (q Qualifiers) PostName(name string) QualifiedName {
	return QualifiedName{Qualifier: q.Post, Name: name}
}
