package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerGradebookRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/gradebook", handler.GetGradebook)
	mux.HandleFunc("GET /v1/periods/{periodID}/courses", handler.ListCourses)
	mux.HandleFunc("GET /v1/periods/{periodID}/gpa", handler.GetPeriodGpa)
	mux.HandleFunc("GET /v1/periods/{periodID}/courses/{courseID}", handler.GetCourseDetails)
	mux.HandleFunc("GET /v1/periods/{periodID}/courses/{courseID}/trend", handler.GetCourseTrend)
	mux.HandleFunc("POST /v1/periods/{periodID}/courses/{courseID}/refresh", handler.RefreshCourse)
}

func registerWhatIfRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/periods/{periodID}/courses/{courseID}/assignments", handler.AddAssignment)
	mux.HandleFunc("PATCH /v1/periods/{periodID}/courses/{courseID}/assignments/{index}", handler.EditAssignment)
	mux.HandleFunc("DELETE /v1/periods/{periodID}/courses/{courseID}/assignments/{index}", handler.DeleteAssignment)
	mux.HandleFunc("POST /v1/periods/{periodID}/courses/{courseID}/rollback", handler.Rollback)
}

func registerDistrictRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/districts", handler.ListDistricts)
}
