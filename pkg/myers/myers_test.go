package myers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func eqString(a, b string) bool { return a == b }

// apply rebuilds the new sequence from the old one and the script.
func apply(a, b []string, steps []Step) []string {
	var res []string
	for _, s := range steps {
		switch s.Op {
		case Keep:
			res = append(res, a[s.Index])
		case Insert:
			res = append(res, b[s.Index])
		}
	}
	return res
}

func TestCalculate_Substitution(t *testing.T) {
	steps := Calculate([]string{"text", "rubric"}, []string{"text", "sic"}, eqString)

	assert.Equal(t, []Step{
		{Index: 0, Op: Keep, NewSeq: 0},
		{Index: 1, Op: Delete, NewSeq: -1},
		{Index: 1, Op: Insert, NewSeq: 1},
	}, steps)
}

func TestCalculate_Empty(t *testing.T) {
	assert.Nil(t, Calculate[string](nil, nil, eqString))

	steps := Calculate(nil, []string{"a", "b"}, eqString)
	assert.Equal(t, []Step{{Index: 0, Op: Insert, NewSeq: 0}, {Index: 1, Op: Insert, NewSeq: 1}}, steps)

	steps = Calculate([]string{"a", "b"}, nil, eqString)
	assert.Equal(t, []Step{{Index: 0, Op: Delete, NewSeq: -1}, {Index: 1, Op: Delete, NewSeq: -1}}, steps)
}

func TestCalculate_Identical(t *testing.T) {
	a := []string{"a", "b", "c"}
	steps := Calculate(a, a, eqString)
	assert.Len(t, steps, 3)
	for i, s := range steps {
		assert.Equal(t, Keep, s.Op)
		assert.Equal(t, i, s.Index)
		assert.Equal(t, i, s.NewSeq)
	}
}

func TestCalculate_Rebuilds(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"ABCABBA", "CBABAC"},
		{"abc", "xyz"},
		{"abcdef", "abxdef"},
		{"a", "ba"},
		{"line1 line2 line3", "line0 line1 line3 line4"},
	}
	for _, c := range cases {
		a := strings.Split(c.a, "")
		b := strings.Split(c.b, "")
		steps := Calculate(a, b, eqString)
		assert.Equal(t, b, apply(a, b, steps), "%s -> %s", c.a, c.b)

		// new positions of keep and insert steps are 0..len(b)-1 in order
		next := 0
		for _, s := range steps {
			if s.Op == Delete {
				continue
			}
			assert.Equal(t, next, s.NewSeq)
			next++
		}
		assert.Equal(t, len(b), next)
	}
}

func TestCalculate_ShortestScript(t *testing.T) {
	steps := Calculate(strings.Split("ABCABBA", ""), strings.Split("CBABAC", ""), eqString)
	stats := Stats(steps)
	assert.Equal(t, 5, stats[Delete]+stats[Insert])
	assert.Equal(t, 4, stats[Keep])
}

func TestCalculate_CustomEquality(t *testing.T) {
	type row struct {
		id   int
		text string
	}
	a := []row{{1, "x"}, {2, "y"}}
	b := []row{{-1, "x"}, {-2, "y"}, {-3, "z"}}
	steps := Calculate(a, b, func(p, q row) bool { return p.text == q.text })
	assert.Equal(t, []Step{
		{Index: 0, Op: Keep, NewSeq: 0},
		{Index: 1, Op: Keep, NewSeq: 1},
		{Index: 2, Op: Insert, NewSeq: 2},
	}, steps)
}
