package site

import (
	"time"

	"github.com/google/uuid"
)

// BuildReport summarizes one preparation run.
type BuildReport struct {
	BuildID        string
	Started        time.Time
	Finished       time.Time
	Pages          int
	ExtraFiles     int
	StageDurations map[string]time.Duration
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		BuildID:        uuid.NewString(),
		Started:        time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

// Duration returns the total wall time of the run.
func (r *BuildReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
