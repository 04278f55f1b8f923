package workflow

import (
	"log/slog"
	"sync"

	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
)

// progressReporter translates fetcher progress events into task updates.
// Report runs on the fetching goroutine and only takes the store lock and
// its own sampler lock.
type progressReporter struct {
	store  *tasks.Store
	logger *slog.Logger

	mu       sync.Mutex
	samplers map[string]*logging.ProgressSampler
}

func newProgressReporter(store *tasks.Store, logger *slog.Logger) *progressReporter {
	return &progressReporter{
		store:    store,
		logger:   logger,
		samplers: make(map[string]*logging.ProgressSampler),
	}
}

// Report implements media.ProgressSink.
func (r *progressReporter) Report(taskID string, event media.ProgressEvent) {
	switch event.Phase {
	case media.PhaseDownloading:
		percent, ok := event.Percent()
		if !ok {
			return
		}
		r.store.Update(taskID, func(t *tasks.Task) {
			t.Status = tasks.StatusDownloading
			t.Progress = percent
		})
		r.log(taskID, string(event.Phase), percent)
	case media.PhaseFinished:
		r.store.Update(taskID, func(t *tasks.Task) {
			t.Status = tasks.StatusConverting
		})
		r.log(taskID, string(event.Phase), -1)
	}
}

func (r *progressReporter) log(taskID, phase string, percent float64) {
	r.mu.Lock()
	sampler, ok := r.samplers[taskID]
	if !ok {
		sampler = logging.NewProgressSampler(10)
		r.samplers[taskID] = sampler
	}
	emit := sampler.ShouldLog(percent, phase)
	r.mu.Unlock()
	if !emit {
		return
	}
	attrs := []logging.Attr{
		logging.TaskID(taskID),
		logging.String(logging.FieldProgressPhase, phase),
	}
	if percent >= 0 {
		attrs = append(attrs, logging.Int(logging.FieldProgressPercent, int(percent)))
	}
	r.logger.Debug("download progress", logging.Args(attrs...)...)
}

// done releases per-task sampler state.
func (r *progressReporter) done(taskID string) {
	r.mu.Lock()
	delete(r.samplers, taskID)
	r.mu.Unlock()
}
