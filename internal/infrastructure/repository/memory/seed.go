package memory

import (
	"time"

	"github.com/openvue/gradepoint/internal/domain/assignment"
	"github.com/openvue/gradepoint/internal/domain/course"
	"github.com/openvue/gradepoint/internal/domain/policy"
)

const (
	PeriodIDQ3 = "q3"
	PeriodIDQ4 = "q4"
)

func SeedGradebookInfo() course.GradebookInfo {
	return course.GradebookInfo{
		Periods: []course.GradingPeriod{
			{
				ID:           PeriodIDQ3,
				Name:         "Quarter 3",
				StartDate:    time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC),
				EndDate:      time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
				DefaultFocus: true,
			},
			{
				ID:        PeriodIDQ4,
				Name:      "Quarter 4",
				StartDate: time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		DefaultPeriodID: PeriodIDQ3,
		InstitutionID:   policy.InstitutionMCPS,
	}
}

func SeedCourses() []course.Course {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	return []course.Course{
		{
			ID:       "eng-10",
			PeriodID: PeriodIDQ3,
			Name:     "English 10",
			Teacher:  "R. Alvarez",
			Room:     "214",
			Assignments: []assignment.Assignment{
				{ID: "eng-a1", Name: "Persuasive essay", Category: "All Tasks / Assessments",
					DueDate: day(2), Score: assignment.Float(88), MaxScore: assignment.Float(100)},
				{ID: "eng-a2", Name: "Socratic seminar", Category: "All Tasks / Assessments",
					DueDate: day(9), Score: assignment.Float(19), MaxScore: assignment.Float(20)},
				{ID: "eng-a3", Name: "Reading log week 5", Category: "Practice / Preparation",
					DueDate: day(11), Score: assignment.Float(10), MaxScore: assignment.Float(10)},
				{ID: "eng-a4", Name: "Novel chapters 8-12", Category: "Practice / Preparation",
					DueDate: day(16)},
			},
		},
		{
			ID:       "bio-hon",
			PeriodID: PeriodIDQ3,
			Name:     "Honors Biology",
			Teacher:  "D. Okafor",
			Room:     "Lab 3",
			Assignments: []assignment.Assignment{
				{ID: "bio-a1", Name: "Genetics lab report", Category: "All Tasks / Assessments",
					DueDate: day(4), Score: assignment.Float(46), MaxScore: assignment.Float(50)},
				{ID: "bio-a2", Name: "Punnett square practice", Category: "Practice / Preparation",
					DueDate: day(6), Score: assignment.Float(8), MaxScore: assignment.Float(10)},
				{ID: "bio-a3", Name: "Field trip form", Category: "All Tasks / Assessments",
					DueDate: day(13), Score: assignment.Float(1), MaxScore: assignment.Float(1), NotForGrading: true},
			},
		},
		{
			ID:       "alg-2",
			PeriodID: PeriodIDQ3,
			Name:     "Algebra 2",
			Teacher:  "S. Nguyen",
			Room:     "118",
			Assignments: []assignment.Assignment{
				{ID: "alg-a1", Name: "Unit 6 quiz", Category: "All Tasks / Assessments",
					DueDate: day(5), Score: assignment.Float(31), MaxScore: assignment.Float(40)},
				{ID: "alg-a2", Name: "Homework 6.3", Category: "Practice / Preparation",
					DueDate: day(8)},
			},
		},
		{
			ID:       "adv-sem",
			PeriodID: PeriodIDQ3,
			Name:     "Advisory Seminar",
			Teacher:  "K. Whitfield",
			Room:     "130",
		},
	}
}

func SeedDistricts() []course.DistrictInfo {
	return []course.DistrictInfo{
		{
			Name:    "Montgomery County Public Schools",
			Address: "Rockville, MD 20850",
			Host:    "md-mcps-psv.edupoint.com",
		},
		{
			Name:    "Frederick County Public Schools",
			Address: "Frederick, MD 21701",
			Host:    "md-fcps-psv.edupoint.com",
		},
	}
}
