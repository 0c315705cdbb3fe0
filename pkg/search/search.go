package search

// Search drives a Strategy over a growing set of Parameters.
type Search struct {
	strategy   Strategy
	parameters []Parameter
}

// NewSearch builds a Search driven by strategy. It panics if strategy is
// nil, since a Search has no meaningful behavior without one.
func NewSearch(strategy Strategy) *Search {
	if strategy == nil {
		panic("search: NewSearch requires a non-nil Strategy")
	}
	return &Search{strategy: strategy}
}

// AddParam appends param to the search space and updates the strategy.
func (s *Search) AddParam(param Parameter) {
	s.parameters = append(s.parameters, param)
	s.strategy.Update(s.parameters)
}

// Reset discards progress and starts over from the first combination.
func (s *Search) Reset() {
	s.strategy.Reset()
}

// ResetAll discards progress and every assigned parameter.
func (s *Search) ResetAll() {
	s.parameters = nil
	s.strategy.ResetAll()
}

// Length is the size of the combined search space.
func (s *Search) Length() int {
	return s.strategy.Length()
}

// Progress is the fraction of the search space already visited, in [0, 1].
// It returns 0 for an empty search space rather than dividing by zero.
func (s *Search) Progress() float64 {
	length := s.Length()
	if length == 0 {
		return 0
	}
	return float64(s.strategy.Progress()) / float64(length)
}

// HasCompleted reports whether every combination has been visited.
func (s *Search) HasCompleted() bool {
	return s.strategy.Progress() >= s.Length()
}

// PeekNext returns the next combination without advancing progress.
func (s *Search) PeekNext() []int {
	return s.strategy.PeekNext()
}

// Next returns the next combination and advances progress by one.
func (s *Search) Next() []int {
	return s.strategy.Next()
}
