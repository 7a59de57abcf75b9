package policy

import "fmt"

var ErrUnknownCategory = fmt.Errorf("unknown grading category")

// Weight is one grading category with its fractional weight in [0,1].
// Colloquial and Short are alternate display labels for narrow layouts.
type Weight struct {
	Name       string
	Colloquial string
	Short      string
	Weight     float64
}

// WeightingPolicy is the ordered table of grading categories. Weights need
// not sum to 1; the engine renormalizes over categories that actually have
// gradable work.
type WeightingPolicy struct {
	weights []Weight
	byName  map[string]Weight
}

func NewWeightingPolicy(weights []Weight) (WeightingPolicy, error) {
	byName := make(map[string]Weight, len(weights))
	ordered := make([]Weight, 0, len(weights))
	for _, w := range weights {
		if w.Name == "" {
			return WeightingPolicy{}, fmt.Errorf("category name is required")
		}
		if _, exists := byName[w.Name]; exists {
			return WeightingPolicy{}, fmt.Errorf("duplicate category %q", w.Name)
		}
		if w.Weight < 0 || w.Weight > 1 {
			return WeightingPolicy{}, fmt.Errorf("category %q weight %v outside [0,1]", w.Name, w.Weight)
		}
		byName[w.Name] = w
		ordered = append(ordered, w)
	}

	return WeightingPolicy{weights: ordered, byName: byName}, nil
}

// Weights returns the categories in listed order.
func (p WeightingPolicy) Weights() []Weight {
	out := make([]Weight, len(p.weights))
	copy(out, p.weights)
	return out
}

func (p WeightingPolicy) Lookup(category string) (Weight, bool) {
	w, ok := p.byName[category]
	return w, ok
}

// FirstCategory returns the default category for new custom assignments.
func (p WeightingPolicy) FirstCategory() (Weight, bool) {
	if len(p.weights) == 0 {
		return Weight{}, false
	}
	return p.weights[0], true
}

func (p WeightingPolicy) Len() int {
	return len(p.weights)
}
