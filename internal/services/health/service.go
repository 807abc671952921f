package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"bill-assistant/internal/shared/server/respond"
)

const checkTimeout = 2 * time.Second

// Check reports whether a dependency answers.
type Check func(ctx context.Context) error

// Service encapsulates health-related checks.
type Service struct {
	checks map[string]Check
}

// NewService constructs a new health service. Nil checks are skipped.
func NewService(checks map[string]Check) *Service {
	s := &Service{checks: map[string]Check{}}
	for name, check := range checks {
		if check != nil {
			s.checks[name] = check
		}
	}
	return s
}

// Report is the readiness payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Status runs every check with a short timeout.
func (s *Service) Status(ctx context.Context) Report {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := Report{OK: true, Checks: make(map[string]string, len(names))}
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := s.checks[name](checkCtx)
		cancel()
		if err != nil {
			report.OK = false
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "up"
	}
	return report
}

// RegisterRoutes mounts GET /health/ready.
func (s *Service) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health/ready", s.ready)
}

func (s *Service) ready(c *gin.Context) {
	report := s.Status(c.Request.Context())
	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	respond.JSON(c, status, report)
}
