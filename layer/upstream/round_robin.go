package upstream

import (
	"sync/atomic"

	"weft/service"
)

// RoundRobinStrategy distributes requests evenly across available
// targets, with optional per-target weighting, matching the teacher's
// strategies.RoundRobinStrategy but over weft's generic Target instead
// of an LLM provider.
type RoundRobinStrategy struct {
	counter atomic.Int64
}

// NewRoundRobinStrategy returns a weighted round-robin Strategy. A
// Target's Weight field controls how many of every weighted rotation
// it receives. When any target has a nonzero Weight, a zero Weight
// counts as 1 and a negative Weight excludes the target; if that
// excludes every target, all of them rotate evenly.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Select implements Strategy.
func (s *RoundRobinStrategy) Select(req *service.Request, available []Target) (Target, error) {
	if len(available) == 0 {
		return Target{}, errNoTargets(s.Name())
	}
	if len(available) == 1 {
		return available[0], nil
	}

	weighted := s.buildWeightedList(available)
	if len(weighted) == 0 {
		weighted = available
	}

	count := s.counter.Add(1) - 1
	if count >= 1_000_000_000 {
		s.counter.CompareAndSwap(count+1, 0)
		count = 0
	}
	return weighted[int(count%int64(len(weighted)))], nil
}

func (s *RoundRobinStrategy) buildWeightedList(available []Target) []Target {
	var result []Target
	hasWeights := false
	for _, t := range available {
		if t.Weight != 0 {
			hasWeights = true
			break
		}
	}
	if !hasWeights {
		return available
	}
	for _, t := range available {
		weight := t.Weight
		if weight == 0 {
			weight = 1
		}
		if weight <= 0 {
			continue
		}
		for i := 0; i < weight; i++ {
			result = append(result, t)
		}
	}
	return result
}

func (s *RoundRobinStrategy) Name() string { return "round-robin" }

func (s *RoundRobinStrategy) Reset() { s.counter.Store(0) }
