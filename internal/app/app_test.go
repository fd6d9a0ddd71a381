package app_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/sjansen/bpmn-to-image/internal/app"
	"github.com/sjansen/bpmn-to-image/internal/domain/conversion"
	"github.com/sjansen/bpmn-to-image/internal/logging"
	"github.com/sjansen/bpmn-to-image/internal/rqx"
	"github.com/sjansen/bpmn-to-image/internal/storage"
	"github.com/sjansen/bpmn-to-image/internal/testutil"
)

func TestConvert(t *testing.T) {
	require := require.New(t)

	tc := newTestCase(t)
	// GIVEN a DMN job between two BPMN jobs
	jobs := []conversion.ConversionJob{
		{Input: "a.bpmn", Outputs: []string{"a.png"}},
		{Input: "b.dmn", Outputs: []string{"b.svg"}},
		{Input: "c.bpmn", Outputs: []string{"c.pdf"}},
	}
	// WHEN the jobs are converted
	err := tc.app.Convert(tc.rqx, jobs, tc.opts)
	// THEN the DMN job is rendered on its own and the BPMN jobs together
	require.NoError(err)
	require.Equal([]string{"b.dmn"}, tc.renderer.dmn)
	require.Equal([][]string{{"a.bpmn", "c.bpmn"}}, tc.renderer.batches)
	// and the run is journaled
	require.Equal([]string{
		"run-started",
		"job-dispatched:b.dmn",
		"batch-dispatched:a.bpmn",
		"batch-dispatched:c.bpmn",
		"run-finished",
	}, tc.repo.Events)
	require.Equal(3, tc.repo.Jobs[tc.rqx.RunID.String()])
	// and progress is logged to standard output only
	require.Contains(tc.out.String(), "conversion finished")
	require.Contains(tc.out.String(), "input=b.dmn")
	require.Empty(tc.err.String())
}

func TestConvertFailure(t *testing.T) {
	require := require.New(t)

	tc := newTestCase(t)
	// GIVEN a renderer that cannot read the DMN file
	tc.renderer.dmnErr = errors.New("no such file")
	// WHEN the jobs are converted
	err := tc.app.Convert(tc.rqx, []conversion.ConversionJob{
		{Input: "b.dmn", Outputs: []string{"b.svg"}},
		{Input: "a.bpmn", Outputs: []string{"a.png"}},
	}, tc.opts)
	// THEN a render failure is returned
	require.ErrorIs(err, conversion.ErrRenderFailure)
	// and the BPMN batch never runs
	require.Empty(tc.renderer.batches)
	// and the failure is journaled and logged to the error sink
	require.Equal([]string{"run-started", "job-dispatched:b.dmn", "run-failed"}, tc.repo.Events)
	require.Contains(tc.repo.Failed[tc.rqx.RunID.String()], "no such file")
	require.Contains(tc.err.String(), "conversion failed")
}

func TestConvertWithoutJournal(t *testing.T) {
	require := require.New(t)

	tc := newTestCase(t)
	tc.app.Runs = nil
	err := tc.app.Convert(tc.rqx, []conversion.ConversionJob{
		{Input: "a.bpmn", Outputs: []string{"a.png"}},
	}, tc.opts)
	require.NoError(err)
	require.Zero(tc.clock.Paused)
}

func TestConvertSurvivesJournalOutage(t *testing.T) {
	require := require.New(t)

	tc := newTestCase(t)
	// GIVEN a journal that is unavailable
	tc.repo.Err = errors.New("offline")
	// WHEN a DMN job and a BPMN job are converted
	err := tc.app.Convert(tc.rqx, []conversion.ConversionJob{
		{Input: "b.dmn", Outputs: []string{"b.svg"}},
		{Input: "a.bpmn", Outputs: []string{"a.png"}},
	}, tc.opts)
	// THEN the conversion still succeeds
	require.NoError(err)
	require.Equal([]string{"b.dmn"}, tc.renderer.dmn)
	require.Equal([][]string{{"a.bpmn"}}, tc.renderer.batches)
	// and only the start of the run was retried before giving up
	require.Equal(4, tc.repo.Calls)
	require.Equal(1600*time.Millisecond, tc.clock.Paused)
	require.Equal(1, strings.Count(tc.out.String(), "unable to journal run"))
	require.Empty(tc.repo.Events)
}

type renderer struct {
	dmn     []string
	batches [][]string
	dmnErr  error
}

func (r *renderer) RenderDMN(ctx context.Context, input string, outputs []string, opts conversion.DMNOptions) error {
	r.dmn = append(r.dmn, input)
	return r.dmnErr
}

func (r *renderer) ConvertAll(ctx context.Context, jobs []conversion.ConversionJob, opts conversion.BPMNOptions) error {
	var inputs []string
	for _, job := range jobs {
		inputs = append(inputs, job.Input)
	}
	r.batches = append(r.batches, inputs)
	return nil
}

type dependencies struct {
	app      *app.App
	rqx      *rqx.RequestContext
	opts     conversion.RenderOptions
	clock    *testutil.Clock
	repo     *storage.RunRepoFake
	renderer *renderer
	out      *bytes.Buffer
	err      *bytes.Buffer
}

func newTestCase(t *testing.T) *dependencies {
	t.Helper()

	out, errW := &bytes.Buffer{}, &bytes.Buffer{}
	loggers, err := logging.New(out, errW, "debug", "logfmt")
	require.NoError(t, err)

	opts, err := conversion.Normalize(conversion.Flags{})
	require.NoError(t, err)

	clock := testutil.NewClock()
	repo := storage.NewRunRepoFake()
	r := &renderer{}
	return &dependencies{
		clock:    clock,
		repo:     repo,
		renderer: r,
		out:      out,
		err:      errW,
		opts:     opts,
		app: &app.App{
			Clock: clock,
			DMN:   r,
			BPMN:  r,
			Runs:  repo,
		},
		rqx: rqx.New(logging.WithLoggers(context.TODO(), loggers), "test case", "v0.0.0"),
	}
}
