package backend

// Accumulator keeps the per-struct state of a backend between BeginStruct and
// Generate. Every struct stays archived until the final render because
// aggregate files are computed across the whole corpus.
type Accumulator[S any] struct {
	structs   []*S
	current   *S
	generated bool
}

// Begin archives the struct in progress and makes s current.
func (a *Accumulator[S]) Begin(s *S) error {
	if a.generated {
		return ErrAlreadyGenerated
	}
	if a.current != nil {
		a.structs = append(a.structs, a.current)
	}
	a.current = s
	return nil
}

// Current returns the struct in progress.
func (a *Accumulator[S]) Current() (*S, error) {
	if a.generated {
		return nil, ErrAlreadyGenerated
	}
	if a.current == nil {
		return nil, ErrNoStruct
	}
	return a.current, nil
}

// Finish archives the struct in progress and returns every struct in visit
// order. It succeeds once; the accumulator is read-only afterwards.
func (a *Accumulator[S]) Finish() ([]*S, error) {
	if a.generated {
		return nil, ErrAlreadyGenerated
	}
	a.generated = true
	if a.current != nil {
		a.structs = append(a.structs, a.current)
		a.current = nil
	}
	return a.structs, nil
}

// NoInheritance is embedded by emitters without inheritance fields.
type NoInheritance struct{}

func (NoInheritance) ProcessInheritanceField(name, _, _ string, _ bool) error {
	return Unsupportedf("inheritance field", name)
}
