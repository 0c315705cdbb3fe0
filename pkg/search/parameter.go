// Package search provides parameter spaces and search strategies for
// brute-forcing combinations of values (e.g. diagnostic session levels,
// security-access keys, ECU addresses) against a target.
package search

import "fmt"

// Parameter defines one dimension of a search space: a name and an ordered
// set of values addressable by index, 0 through Length()-1.
type Parameter interface {
	Name() string
	Length() int
	Get(index int) int
}

// IntegerChoiceParameter enumerates an explicit, ordered list of values.
type IntegerChoiceParameter struct {
	name   string
	values []int
}

// NewIntegerChoiceParameter builds a parameter over an explicit value list.
func NewIntegerChoiceParameter(name string, values []int) *IntegerChoiceParameter {
	return &IntegerChoiceParameter{name: name, values: values}
}

func (p *IntegerChoiceParameter) Name() string { return p.name }

func (p *IntegerChoiceParameter) Length() int { return len(p.values) }

func (p *IntegerChoiceParameter) Get(index int) int { return p.values[index] }

// IntegerRangeParameter enumerates start, start+step, start+2*step, ...,
// stopping before stop is reached.
type IntegerRangeParameter struct {
	name              string
	start, stop, step int
}

// NewIntegerRangeParameter builds a parameter over [start, stop) stepping by
// step. It panics if step is zero or start equals stop, mirroring the
// teacher's fail-fast posture for malformed construction arguments.
func NewIntegerRangeParameter(name string, start, stop, step int) *IntegerRangeParameter {
	if step == 0 {
		panic(fmt.Sprintf("search: IntegerRangeParameter %q: step can't be zero", name))
	}
	if start == stop {
		panic(fmt.Sprintf("search: IntegerRangeParameter %q: start can't equal stop", name))
	}
	return &IntegerRangeParameter{name: name, start: start, stop: stop, step: step}
}

func (p *IntegerRangeParameter) Name() string { return p.name }

func (p *IntegerRangeParameter) Length() int {
	n := (p.stop - p.start) / p.step
	if (p.stop-p.start)%p.step != 0 {
		n++
	}
	return n
}

func (p *IntegerRangeParameter) Get(index int) int {
	return p.start + index*p.step
}
