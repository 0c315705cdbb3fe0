package search

// BruteforceStrategy visits every combination of parameter values in
// lexicographic (odometer) order: the last parameter added cycles fastest,
// carrying into earlier parameters the way the digits of a counter do.
type BruteforceStrategy struct {
	parameters []Parameter
	indices    []int
	total      int
	returned   int
	done       bool
}

// NewBruteforceStrategy builds an empty strategy; call Update to install a
// parameter set before use.
func NewBruteforceStrategy() *BruteforceStrategy {
	return &BruteforceStrategy{}
}

// Reset forgets progress and recomputes it against the current parameters.
func (s *BruteforceStrategy) Reset() {
	s.Update(s.parameters)
}

// ResetAll forgets progress and the parameter set entirely.
func (s *BruteforceStrategy) ResetAll() {
	s.parameters = nil
	s.indices = nil
	s.total = 0
	s.returned = 0
	s.done = false
}

// Update installs parameters as the new search space and resets progress.
func (s *BruteforceStrategy) Update(parameters []Parameter) {
	s.ResetAll()
	s.parameters = parameters
	s.indices = make([]int, len(parameters))

	total := 0
	if len(parameters) > 0 {
		total = 1
		for _, p := range parameters {
			total *= p.Length()
		}
	}
	s.total = total
}

// PeekNext returns the current combination without advancing.
func (s *BruteforceStrategy) PeekNext() []int {
	values := make([]int, len(s.parameters))
	for i, p := range s.parameters {
		values[i] = p.Get(s.indices[i])
	}
	return values
}

// Next returns the current combination and advances the odometer by one.
func (s *BruteforceStrategy) Next() []int {
	values := s.PeekNext()
	s.advance()
	return values
}

// advance increments the rightmost index, carrying leftward on overflow.
// Once the leftmost index overflows, the search is exhausted.
func (s *BruteforceStrategy) advance() {
	if s.done || len(s.indices) == 0 {
		s.done = true
		return
	}
	for i := len(s.indices) - 1; i >= 0; i-- {
		s.indices[i]++
		if s.indices[i] < s.parameters[i].Length() {
			s.returned++
			return
		}
		s.indices[i] = 0
		if i == 0 {
			s.done = true
			s.returned = s.total
		}
	}
}

// Length returns the total number of combinations in the current parameter set.
func (s *BruteforceStrategy) Length() int {
	return s.total
}

// Progress returns the count of combinations already returned by Next.
func (s *BruteforceStrategy) Progress() int {
	return s.returned
}
