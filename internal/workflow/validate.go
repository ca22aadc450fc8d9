package workflow

import (
	"errors"
	"sort"
)

// CredentialSet holds the credential names a document declares.
type CredentialSet map[string]struct{}

// NewCredentialSet returns a set containing names.
func NewCredentialSet(names ...string) CredentialSet {
	set := make(CredentialSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether name is declared.
func (s CredentialSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Validate walks every entity reachable from root, through children and
// failure handlers at any depth, and rejects duplicate identifiers and
// references to undeclared credentials. When both problems exist the
// returned error carries both.
func Validate(root Entity, declared CredentialSet) error {
	w := &walker{
		visited: make(map[*entity]bool),
		counts:  make(map[string]int),
		needed:  make(map[string]bool),
	}
	w.walk(root)

	var duplicates []string
	for id, n := range w.counts {
		if n > 1 {
			duplicates = append(duplicates, id)
		}
	}
	sort.Strings(duplicates)

	var missing []string
	for name := range w.needed {
		if !declared.Has(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, &CompileError{Kind: KindMissingCredential, Names: missing})
	}
	if len(duplicates) > 0 {
		errs = append(errs, &CompileError{Kind: KindDuplicateIdentifier, Names: duplicates})
	}
	return errors.Join(errs...)
}

type walker struct {
	visited map[*entity]bool
	counts  map[string]int
	needed  map[string]bool
}

func (w *walker) walk(e Entity) {
	if e == nil {
		return
	}
	c := e.core()
	if w.visited[c] {
		return
	}
	w.visited[c] = true

	switch v := e.(type) {
	case *Task:
		w.counts[v.id]++
		if v.credential != "" {
			w.needed[v.credential] = true
		}
	case *Kill:
		w.counts[v.id]++
	case *Sequence:
		for _, child := range v.children {
			w.walk(child)
		}
	case *Parallel:
		w.counts[v.forkID]++
		w.counts[v.joinID]++
		for _, child := range v.children {
			w.walk(child)
		}
	case *Decision:
		w.counts[v.id]++
		w.walk(v.def)
		for _, cs := range v.cases {
			w.walk(cs.Then)
		}
	}

	w.walk(c.onError)
}
