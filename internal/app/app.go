package app

import (
	"strings"
	"time"

	"github.com/sjansen/bpmn-to-image/internal/domain/conversion"
	"github.com/sjansen/bpmn-to-image/internal/logging"
	"github.com/sjansen/bpmn-to-image/internal/rqx"
)

type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
}

type RunRepo interface {
	StartRun(rqx *rqx.RequestContext, jobs int) error
	JobDispatched(rqx *rqx.RequestContext, job conversion.Job) error
	BatchDispatched(rqx *rqx.RequestContext, jobs []conversion.ConversionJob) error
	FinishRun(rqx *rqx.RequestContext, cause error) error
}

// App converts diagrams. Runs is optional; when set every run is journaled.
type App struct {
	Clock Clock
	DMN   conversion.DMNRenderer
	BPMN  conversion.BPMNConverter
	Runs  RunRepo
}

var journalRetryDelays = []time.Duration{
	0 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
	1 * time.Second,
}

// Convert renders every job and returns the first failure.
func (a *App) Convert(rqx *rqx.RequestContext, jobs []conversion.ConversionJob, opts conversion.RenderOptions) error {
	loggers := logging.FromContext(rqx.Ctx)
	plan := conversion.Plan(jobs)

	loggers.Out.Debug("starting run",
		"run", rqx.RunID.String(),
		"jobs", len(plan),
		"bpmn", len(conversion.BPMNQueue(plan)),
	)
	j := &journal{app: a, rqx: rqx, off: a.Runs == nil}
	j.write("run-started", func() error {
		return a.Runs.StartRun(rqx, len(plan))
	})
	// Without a started run the remaining events have nothing to attach to.
	j.off = j.off || j.failed

	scheduler := &conversion.Scheduler{
		DMN:      a.DMN,
		BPMN:     a.BPMN,
		Observer: &observer{journal: j},
	}
	start := a.Clock.Now()
	err := scheduler.Run(rqx.Ctx, plan, opts)
	elapsed := a.Clock.Now().Sub(start)

	j.write("run-settled", func() error {
		return a.Runs.FinishRun(rqx, err)
	})
	if err != nil {
		loggers.Err.Error("conversion failed", "err", err)
		return err
	}

	loggers.Out.Info("conversion finished", "jobs", len(plan), "elapsed", elapsed)
	return nil
}

// journal writes one run's events to the run repo, retrying on failure.
// A journal that cannot be written never fails the run.
type journal struct {
	app    *App
	rqx    *rqx.RequestContext
	off    bool
	failed bool
}

func (j *journal) write(event string, write func() error) {
	if j.off {
		return
	}

	var err error
	for _, d := range journalRetryDelays {
		j.app.Clock.Sleep(d)
		if err = write(); err == nil {
			return
		}
	}
	j.failed = true
	logging.FromContext(j.rqx.Ctx).Out.Warn("unable to journal run",
		"run", j.rqx.RunID.String(),
		"event", event,
		"err", err,
	)
}

type observer struct {
	*journal
}

func (o *observer) Dispatched(job conversion.Job) {
	logging.FromContext(o.rqx.Ctx).Out.Debug("dispatching",
		"kind", job.Kind,
		"input", job.Input,
		"outputs", strings.Join(job.Outputs, ","),
	)
	o.write("job-dispatched", func() error {
		return o.app.Runs.JobDispatched(o.rqx, job)
	})
}

func (o *observer) Batched(jobs []conversion.ConversionJob) {
	logging.FromContext(o.rqx.Ctx).Out.Debug("dispatching batch",
		"kind", conversion.KindBPMN,
		"jobs", len(jobs),
	)
	o.write("batch-dispatched", func() error {
		return o.app.Runs.BatchDispatched(o.rqx, jobs)
	})
}
