package conversion

import (
	"context"
	"path/filepath"
	"strings"
)

// Kind names the renderer a job is routed to.
type Kind int

const (
	KindBPMN Kind = iota
	KindDMN
)

func (k Kind) String() string {
	if k == KindDMN {
		return "dmn"
	}
	return "bpmn"
}

// Job is a ConversionJob tagged with the renderer that will handle it.
type Job struct {
	Kind Kind
	ConversionJob
}

// DMNRenderer renders one DMN file to every one of its outputs.
type DMNRenderer interface {
	RenderDMN(ctx context.Context, input string, outputs []string, opts DMNOptions) error
}

// BPMNConverter renders a batch of BPMN jobs in one call.
type BPMNConverter interface {
	ConvertAll(ctx context.Context, jobs []ConversionJob, opts BPMNOptions) error
}

// Observer is told about every dispatch before it happens.
type Observer interface {
	Dispatched(job Job)
	Batched(jobs []ConversionJob)
}

// Classify routes ".dmn" inputs to the DMN renderer and everything else to
// the BPMN converter.
func Classify(job ConversionJob) Job {
	kind := KindBPMN
	if strings.EqualFold(filepath.Ext(job.Input), ".dmn") {
		kind = KindDMN
	}
	return Job{Kind: kind, ConversionJob: job}
}

// Plan classifies jobs, keeping their order.
func Plan(jobs []ConversionJob) []Job {
	planned := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		planned = append(planned, Classify(job))
	}
	return planned
}

// BPMNQueue returns the BPMN jobs of plan, in order.
func BPMNQueue(plan []Job) []ConversionJob {
	var queue []ConversionJob
	for _, job := range plan {
		if job.Kind == KindBPMN {
			queue = append(queue, job.ConversionJob)
		}
	}
	return queue
}

// Scheduler dispatches a plan to the two renderers. Observer is optional.
type Scheduler struct {
	DMN      DMNRenderer
	BPMN     BPMNConverter
	Observer Observer
}

// Run renders DMN jobs as they are reached and all BPMN jobs afterwards in
// a single batch. The first failure stops the run.
func (s *Scheduler) Run(ctx context.Context, plan []Job, opts RenderOptions) error {
	for _, job := range plan {
		if job.Kind != KindDMN {
			continue
		}
		if s.Observer != nil {
			s.Observer.Dispatched(job)
		}
		if err := s.DMN.RenderDMN(ctx, job.Input, job.Outputs, opts.DMN()); err != nil {
			return classify(ErrRenderFailure, err)
		}
	}

	queue := BPMNQueue(plan)
	if len(queue) == 0 {
		return nil
	}
	if s.Observer != nil {
		s.Observer.Batched(queue)
	}
	return classify(ErrRenderFailure, s.BPMN.ConvertAll(ctx, queue, opts.BPMN()))
}
