package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openvue/gradepoint/internal/config"
	"github.com/openvue/gradepoint/internal/domain/course"
	"github.com/openvue/gradepoint/internal/domain/policy"
	cacherepo "github.com/openvue/gradepoint/internal/infrastructure/repository/cache"
	"github.com/openvue/gradepoint/internal/infrastructure/repository/memory"
	"github.com/openvue/gradepoint/internal/infrastructure/source/synergy"
	"github.com/openvue/gradepoint/internal/interfaces/httpapi"
	basecache "github.com/openvue/gradepoint/internal/platform/cache"
	idgen "github.com/openvue/gradepoint/internal/platform/id"
	"github.com/openvue/gradepoint/internal/platform/logging"
	"github.com/openvue/gradepoint/internal/platform/resilience"
	"github.com/openvue/gradepoint/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	policies, err := policy.ForInstitution(cfg.InstitutionID)
	if err != nil {
		return nil, fmt.Errorf("load grading policies: %w", err)
	}
	if len(cfg.WeightedCourseMarkers) > 0 {
		policies.Classifier = policy.NewSubstringClassifier(cfg.WeightedCourseMarkers)
	}

	source := newCourseSource(cfg, logger)
	if cfg.CacheEnabled {
		source = cacherepo.NewSource(source, basecache.NewStore(cfg.CacheTTL))
	}

	gradebookSvc := usecase.NewGradebookService(
		source,
		policies,
		idgen.NewRandomGenerator("cust-"),
		logger,
		usecase.WithPrefetchWorkers(cfg.PrefetchWorkers),
	)

	// Warm the grading-period index up front; a failure is not fatal
	// because period routes re-attempt the load lazily.
	initCtx, cancel := context.WithTimeout(context.Background(), cfg.SynergyTimeout)
	defer cancel()
	if err := gradebookSvc.Init(initCtx); err != nil {
		logger.Warn("gradebook init deferred", "error", err)
	} else {
		periods := gradebookSvc.GradingPeriods()
		periodIDs := make([]string, 0, len(periods))
		for _, p := range periods {
			periodIDs = append(periodIDs, p.ID)
		}
		if err := gradebookSvc.Prefetch(initCtx, periodIDs); err != nil {
			logger.Warn("period prefetch failed", "error", err)
		}
	}

	handler := httpapi.NewHandler(gradebookSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// newCourseSource picks the Synergy gateway when configured and falls
// back to the seeded in-memory source for demo mode.
func newCourseSource(cfg config.Config, logger *logging.Logger) course.Source {
	if !cfg.SynergyEnabled {
		logger.Info("synergy disabled, serving seeded demo gradebook")
		return memory.NewSource(memory.SeedGradebookInfo(), memory.SeedCourses(), memory.SeedDistricts())
	}

	return synergy.NewClient(synergy.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.SynergyTimeout + 5*time.Second},
		BaseURL:    cfg.SynergyBaseURL,
		Token:      cfg.SynergyToken,
		Timeout:    cfg.SynergyTimeout,
		MaxRetries: cfg.SynergyMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SynergyCircuitEnabled,
			FailureThreshold: cfg.SynergyCircuitFailureCount,
			OpenTimeout:      cfg.SynergyCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SynergyCircuitHalfOpenMaxReq,
		},
	})
}
