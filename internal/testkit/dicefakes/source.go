// Package dicefakes provides deterministic dice sources for tests.
package dicefakes

// Source replays scripted draws in order. When a queue runs dry it falls
// back to fixed values: Intn returns 0 (lowest face), Float64 returns 1
// (no chance trigger fires), and Perm returns the identity permutation
// (round order matches the cube-set order).
type Source struct {
	IntnQueue    []int
	Float64Queue []float64
	PermQueue    [][]int
}

func (s *Source) Intn(n int) int {
	if len(s.IntnQueue) == 0 {
		return 0
	}
	v := s.IntnQueue[0]
	s.IntnQueue = s.IntnQueue[1:]
	return v
}

func (s *Source) Float64() float64 {
	if len(s.Float64Queue) == 0 {
		return 1
	}
	v := s.Float64Queue[0]
	s.Float64Queue = s.Float64Queue[1:]
	return v
}

func (s *Source) Perm(n int) []int {
	if len(s.PermQueue) == 0 {
		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		return perm
	}
	v := s.PermQueue[0]
	s.PermQueue = s.PermQueue[1:]
	return v
}
