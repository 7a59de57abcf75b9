package policy

import "strings"

// CourseClassifier decides whether a course earns weighted GPA points.
// Districts that expose a per-course attribute can supply their own
// implementation instead of name matching.
type CourseClassifier interface {
	IsWeighted(courseName string) bool
}

// SubstringClassifier marks a course weighted when its name contains any
// of the configured markers, case-insensitively.
type SubstringClassifier struct {
	markers []string
}

// DefaultWeightedMarkers are the course-name tokens that commonly denote
// weighted-GPA coursework.
func DefaultWeightedMarkers() []string {
	return []string{"Honors", "Hon ", "AP ", "IB ", "Adv ", "Advanced", "Magnet"}
}

func NewSubstringClassifier(markers []string) SubstringClassifier {
	lowered := make([]string, 0, len(markers))
	for _, marker := range markers {
		if strings.TrimSpace(marker) == "" {
			continue
		}
		lowered = append(lowered, strings.ToLower(marker))
	}
	return SubstringClassifier{markers: lowered}
}

func (c SubstringClassifier) IsWeighted(courseName string) bool {
	name := strings.ToLower(courseName)
	for _, marker := range c.markers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
