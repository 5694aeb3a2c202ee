package daily

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quest/internal/recurrence"
	"quest/internal/task"
)

// Store is the state the runner reads templates and instances from and
// writes new instances to.
type Store interface {
	Templates() ([]recurrence.Template, error)
	Exceptions(templateID string) (recurrence.Exceptions, error)
	Instances(date time.Time) ([]task.Instance, error)
	// InsertInstances returns the instances it actually stored; one whose
	// (template, date) pair is already present is skipped.
	InsertInstances(date time.Time, instances []task.Instance) ([]task.Instance, error)
}

// Runner applies materialization to a store. Runs are serialized so the
// read-decide-write sequence never interleaves with another run.
type Runner struct {
	mu    sync.Mutex
	store Store
	m     Materializer
}

func NewRunner(store Store, m Materializer) *Runner {
	return &Runner{store: store, m: m}
}

// Run materializes today and returns the instances actually inserted.
func (r *Runner) Run(ctx context.Context, today time.Time) ([]task.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	templates, err := r.store.Templates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	exceptions := make(map[string]recurrence.Exceptions, len(templates))
	for _, t := range templates {
		if t.Exceptions != nil {
			continue
		}
		ex, err := r.store.Exceptions(t.ID)
		if err != nil {
			return nil, fmt.Errorf("load exceptions for %s: %w", t.ID, err)
		}
		exceptions[t.ID] = ex
	}
	existing, err := r.store.Instances(today)
	if err != nil {
		return nil, fmt.Errorf("load instances: %w", err)
	}

	created := r.m.MaterializeToday(templates, exceptions, existing, today)
	if len(created) == 0 {
		return nil, nil
	}
	inserted, err := r.store.InsertInstances(today, created)
	if err != nil {
		return nil, fmt.Errorf("insert instances: %w", err)
	}
	if skipped := len(created) - len(inserted); skipped > 0 {
		r.m.logger().Printf("materialize: %d instance(s) for %s were already stored", skipped, recurrence.FormatDate(today))
	}
	if len(inserted) > 0 {
		r.m.logger().Printf("materialize: created %d instance(s) for %s", len(inserted), recurrence.FormatDate(today))
	}
	return inserted, nil
}
