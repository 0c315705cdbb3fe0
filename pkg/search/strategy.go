package search

// Strategy decides the order in which parameter combinations are visited.
type Strategy interface {
	// Reset forgets progress but keeps the current parameter set.
	Reset()
	// ResetAll forgets progress and the parameter set.
	ResetAll()
	// Update installs a new parameter set and resets progress against it.
	Update(parameters []Parameter)
	// Next returns the current combination and advances to the next one.
	Next() []int
	// PeekNext returns the current combination without advancing.
	PeekNext() []int
	// Length is the total number of combinations in the current parameter set.
	Length() int
	// Progress is the count of combinations already returned by Next.
	Progress() int
}
