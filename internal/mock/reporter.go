package mock

import (
	"context"
	"sync"
	"time"

	"github.com/miladsoleymani/mqtttester/core"
)

var _ core.Reporter = (*Reporter)(nil)

// Report records one ReportResult call.
type Report struct {
	Source    string
	Result    core.TestResult
	TestType  core.TestType
	CreatedAt time.Time
}

// Reporter is a test double for core.Reporter.
type Reporter struct {
	mu      sync.Mutex
	reports []Report
	Err     error
}

func (r *Reporter) ReportResult(_ context.Context, source string, result core.TestResult, testType core.TestType, createdAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{
		Source:    source,
		Result:    result,
		TestType:  testType,
		CreatedAt: createdAt,
	})
	return r.Err
}

// Reports returns every recorded call, failed ones included.
func (r *Reporter) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}
