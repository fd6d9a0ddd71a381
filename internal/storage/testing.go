package storage

import (
	"github.com/sjansen/bpmn-to-image/internal/domain/conversion"
	"github.com/sjansen/bpmn-to-image/internal/rqx"
)

// RunRepoFake keeps journal events in memory.
type RunRepoFake struct {
	Err    error
	Calls  int
	Events []string
	Jobs   map[string]int
	Failed map[string]string
}

func NewRunRepoFake() *RunRepoFake {
	return &RunRepoFake{
		Jobs:   map[string]int{},
		Failed: map[string]string{},
	}
}

// StartRun records a new run.
func (r *RunRepoFake) StartRun(rqx *rqx.RequestContext, jobs int) error {
	r.Jobs[rqx.RunID.String()] = jobs
	return r.append("run-started")
}

// JobDispatched records a single dispatch.
func (r *RunRepoFake) JobDispatched(rqx *rqx.RequestContext, job conversion.Job) error {
	return r.append("job-dispatched:" + job.Input)
}

// BatchDispatched records one event per batched job.
func (r *RunRepoFake) BatchDispatched(rqx *rqx.RequestContext, jobs []conversion.ConversionJob) error {
	for _, job := range jobs {
		if err := r.append("batch-dispatched:" + job.Input); err != nil {
			return err
		}
	}
	return nil
}

// FinishRun settles the run.
func (r *RunRepoFake) FinishRun(rqx *rqx.RequestContext, cause error) error {
	if cause != nil {
		r.Failed[rqx.RunID.String()] = cause.Error()
		return r.append("run-failed")
	}
	return r.append("run-finished")
}

func (r *RunRepoFake) append(event string) error {
	r.Calls++
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, event)
	return nil
}
