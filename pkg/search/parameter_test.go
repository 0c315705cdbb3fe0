package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegerChoiceParameter(t *testing.T) {
	p := NewIntegerChoiceParameter("level", []int{1, 3, 5})
	assert.Equal(t, "level", p.Name())
	assert.Equal(t, 3, p.Length())
	assert.Equal(t, 1, p.Get(0))
	assert.Equal(t, 5, p.Get(2))
}

func TestIntegerRangeParameter(t *testing.T) {
	p := NewIntegerRangeParameter("addr", 0, 10, 2)
	assert.Equal(t, 5, p.Length())
	assert.Equal(t, 0, p.Get(0))
	assert.Equal(t, 8, p.Get(4))
}

func TestIntegerRangeParameterRejectsZeroStep(t *testing.T) {
	assert.Panics(t, func() {
		NewIntegerRangeParameter("bad", 0, 10, 0)
	})
}

func TestIntegerRangeParameterRejectsEqualStartStop(t *testing.T) {
	assert.Panics(t, func() {
		NewIntegerRangeParameter("bad", 5, 5, 1)
	})
}
