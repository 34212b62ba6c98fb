// Package myers computes Myers' O(ND) edit scripts over arbitrary sequences.
//
// The script is expressed with three commands: KEEP an element of the old
// sequence (possibly at a new position), DELETE an element of the old
// sequence, INSERT an element of the new sequence. Steps are returned in
// reading order, which is the order callers must apply them in.
package myers

type Op int

const (
	Keep Op = iota
	Delete
	Insert
)

func (o Op) String() string {
	switch o {
	case Keep:
		return "keep"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	default:
		return "unknown"
	}
}

// Step is one edit instruction.
//
// Keep:   Index is the position in the old sequence, NewSeq the position in the new one.
// Delete: Index is the position in the old sequence, NewSeq is -1.
// Insert: Index and NewSeq are the position in the new sequence.
type Step struct {
	Index  int `json:"index"`
	Op     Op  `json:"op"`
	NewSeq int `json:"new_seq"`
}

// Calculate returns the shortest edit script turning a into b.
func Calculate[T any](a, b []T, equal func(T, T) bool) []Step {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return nil
	}

	trace := shortestEdit(a, b, equal)
	steps := backtrack(trace, n, m)

	// backtrack walks from the end
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

// shortestEdit runs the forward search and records the frontier at the start of every round.
func shortestEdit[T any](a, b []T, equal func(T, T) bool) [][]int {
	n, m := len(a), len(b)
	max := n + m
	offset := max + 1
	v := make([]int, 2*max+3)
	v[offset+1] = 0

	var trace [][]int
	for d := 0; d <= max; d++ {
		snapshot := make([]int, len(v))
		copy(snapshot, v)
		trace = append(trace, snapshot)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && equal(a[x], b[y]) {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				return trace
			}
		}
	}
	return trace
}

func backtrack(trace [][]int, n, m int) []Step {
	offset := n + m + 1
	x, y := n, m
	steps := make([]Step, 0, n+m)

	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY && x > 0 && y > 0 {
			steps = append(steps, Step{Index: x - 1, Op: Keep, NewSeq: y - 1})
			x--
			y--
		}

		if d > 0 {
			if x == prevX {
				steps = append(steps, Step{Index: y - 1, Op: Insert, NewSeq: y - 1})
			} else {
				steps = append(steps, Step{Index: x - 1, Op: Delete, NewSeq: -1})
			}
		}
		x, y = prevX, prevY
	}
	return steps
}

// Stats counts the steps per operation.
func Stats(steps []Step) map[Op]int {
	res := map[Op]int{Keep: 0, Delete: 0, Insert: 0}
	for _, s := range steps {
		res[s.Op]++
	}
	return res
}
