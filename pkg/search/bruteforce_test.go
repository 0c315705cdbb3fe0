package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBruteforceVisitsEveryCombinationInOrder(t *testing.T) {
	a := NewIntegerChoiceParameter("a", []int{1, 2})
	b := NewIntegerChoiceParameter("b", []int{10, 20, 30})

	s := NewBruteforceStrategy()
	s.Update([]Parameter{a, b})
	require.Equal(t, 6, s.Length())

	var seen [][]int
	for i := 0; i < s.Length(); i++ {
		seen = append(seen, s.Next())
	}

	expected := [][]int{
		{1, 10}, {1, 20}, {1, 30},
		{2, 10}, {2, 20}, {2, 30},
	}
	assert.Equal(t, expected, seen)
	assert.Equal(t, s.Length(), s.Progress())
}

func TestBruteforcePeekNextDoesNotAdvance(t *testing.T) {
	a := NewIntegerChoiceParameter("a", []int{1, 2})
	s := NewBruteforceStrategy()
	s.Update([]Parameter{a})

	first := s.PeekNext()
	second := s.PeekNext()
	assert.Equal(t, first, second)
	assert.Equal(t, 0, s.Progress())
}

func TestBruteforceResetRestartsFromZero(t *testing.T) {
	a := NewIntegerChoiceParameter("a", []int{1, 2})
	s := NewBruteforceStrategy()
	s.Update([]Parameter{a})

	s.Next()
	assert.Equal(t, 1, s.Progress())

	s.Reset()
	assert.Equal(t, 0, s.Progress())
	assert.Equal(t, []int{1}, s.PeekNext())
}

func TestBruteforceResetAllClearsParameters(t *testing.T) {
	a := NewIntegerChoiceParameter("a", []int{1, 2})
	s := NewBruteforceStrategy()
	s.Update([]Parameter{a})

	s.ResetAll()
	assert.Equal(t, 0, s.Length())
}

func TestBruteforceSingleParameterLength(t *testing.T) {
	a := NewIntegerRangeParameter("r", 0, 10, 1)
	s := NewBruteforceStrategy()
	s.Update([]Parameter{a})
	assert.Equal(t, 10, s.Length())
}
