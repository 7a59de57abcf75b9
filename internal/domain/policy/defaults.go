package policy

import "fmt"

const (
	// InstitutionMCPS selects the built-in Montgomery County defaults.
	InstitutionMCPS = "mcps"

	NoMarkLabel = "N/A"
	NoMarkColor = "var(--c-fg)"
)

// Set bundles the two policies plus the classifier one institution uses.
type Set struct {
	Weighting  WeightingPolicy
	Grading    GradingPolicy
	Classifier CourseClassifier
}

// ForInstitution returns the built-in policy set for a known institution
// id. Unknown ids are a configuration error; there is no generic fallback
// because mark tables differ too much between districts to guess.
func ForInstitution(id string) (Set, error) {
	switch id {
	case InstitutionMCPS, "":
		return mcps(), nil
	default:
		return Set{}, fmt.Errorf("no built-in policy for institution %q", id)
	}
}

func gpa(plain, weighted float64) (*float64, *float64) {
	return &plain, &weighted
}

// mcps is the two-category 90/10 split with the five-tier A-E table that
// ships as the default institution.
func mcps() Set {
	weighting, err := NewWeightingPolicy([]Weight{
		{Name: "All Tasks / Assessments", Colloquial: "All Tasks", Short: "AT", Weight: 0.9},
		{Name: "Practice / Preparation", Colloquial: "Practice/Prep", Short: "PP", Weight: 0.1},
	})
	if err != nil {
		panic(err)
	}

	a, wa := gpa(4, 5)
	b, wb := gpa(3, 4)
	c, wc := gpa(2, 3)
	d, wd := gpa(1, 1)
	e, we := gpa(0, 0)
	grading, err := NewGradingPolicy([]Mark{
		{Label: "A", Color: "var(--c-scale-5)", Kind: ThresholdAtLeast, RatioNeeded: 0.895, GpaPoints: a, WgpaPoints: wa},
		{Label: "B", Color: "var(--c-scale-4)", Kind: ThresholdAtLeast, RatioNeeded: 0.795, GpaPoints: b, WgpaPoints: wb},
		{Label: "C", Color: "var(--c-scale-3)", Kind: ThresholdAtLeast, RatioNeeded: 0.695, GpaPoints: c, WgpaPoints: wc},
		{Label: "D", Color: "var(--c-scale-2)", Kind: ThresholdAtLeast, RatioNeeded: 0.595, GpaPoints: d, WgpaPoints: wd},
		{Label: "E", Color: "var(--c-scale-1)", Kind: ThresholdAnyGraded, GpaPoints: e, WgpaPoints: we},
		{Label: NoMarkLabel, Color: NoMarkColor, Kind: ThresholdAlways},
	})
	if err != nil {
		panic(err)
	}

	return Set{
		Weighting:  weighting,
		Grading:    grading,
		Classifier: NewSubstringClassifier(DefaultWeightedMarkers()),
	}
}
