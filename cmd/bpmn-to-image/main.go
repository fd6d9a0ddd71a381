package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/pkg/errors"

	"github.com/sjansen/bpmn-to-image/internal/app"
	"github.com/sjansen/bpmn-to-image/internal/config"
	"github.com/sjansen/bpmn-to-image/internal/domain/conversion"
	"github.com/sjansen/bpmn-to-image/internal/logging"
	"github.com/sjansen/bpmn-to-image/internal/render"
	"github.com/sjansen/bpmn-to-image/internal/rqx"
	"github.com/sjansen/bpmn-to-image/internal/storage"
)

var version = "dev"

// ExitError carries the process exit code. An empty Message means the
// failure has already been logged.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err == nil {
		return
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		exitErr = &ExitError{Code: 1, Message: err.Error()}
	}
	if exitErr.Message != "" {
		fmt.Fprintln(os.Stderr, exitErr.Message)
	}
	os.Exit(exitErr.Code)
}

type cli struct {
	minDimensions string
	title         bool
	footer        bool
	scale         float64
	dmnView       string
	configPath    string
	logLevel      string
	logFormat     string
	table         string
	region        string
	endpoint      string
	diagrams      []string

	minDimensionsSet bool
	titleSet         bool
	footerSet        bool
	scaleSet         bool
	dmnViewSet       bool
	logLevelSet      bool
	logFormatSet     bool
}

func newParser(c *cli) *kingpin.Application {
	p := kingpin.New("bpmn-to-image", "Convert BPMN and DMN diagrams to images and documents.")
	p.Version(version)
	p.HelpFlag.Short('h')

	p.Flag("min-dimensions", "Minimum canvas size (default 400x300).").
		IsSetByUser(&c.minDimensionsSet).PlaceHolder("WxH").StringVar(&c.minDimensions)
	p.Flag("title", "Draw the diagram title (default on).").
		IsSetByUser(&c.titleSet).BoolVar(&c.title)
	p.Flag("footer", "Draw the footer (default on).").
		IsSetByUser(&c.footerSet).BoolVar(&c.footer)
	p.Flag("scale", "Scale factor for raster and PDF output (default 1).").
		IsSetByUser(&c.scaleSet).PlaceHolder("FACTOR").Float64Var(&c.scale)
	p.Flag("dmn-view", "DMN view: drd, decision or literalExpression (default drd).").
		IsSetByUser(&c.dmnViewSet).PlaceHolder("VIEW").StringVar(&c.dmnView)
	p.Flag("config", "HCL file with default settings.").
		PlaceHolder("FILE").StringVar(&c.configPath)
	p.Flag("log-level", "Log level: debug, info, warn or error.").
		Default("info").IsSetByUser(&c.logLevelSet).StringVar(&c.logLevel)
	p.Flag("log-format", "Log format: text, json or logfmt.").
		Default("text").IsSetByUser(&c.logFormatSet).StringVar(&c.logFormat)
	p.Flag("journal-table", "Record runs in this DynamoDB table.").
		PlaceHolder("NAME").StringVar(&c.table)
	p.Flag("journal-region", "AWS region of the journal table.").
		PlaceHolder("REGION").StringVar(&c.region)
	p.Flag("journal-endpoint", "Override the DynamoDB endpoint.").
		PlaceHolder("URL").StringVar(&c.endpoint)

	p.Arg("diagram"+conversion.Delimiter+"outputs", "Input file and comma separated outputs. A bare extension reuses the previous name.").
		StringsVar(&c.diagrams)
	return p
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{}
	terminated := false

	p := newParser(c)
	p.UsageWriter(stdout)
	p.ErrorWriter(stderr)
	p.Terminate(func(int) { terminated = true })

	_, err := p.Parse(args)
	switch {
	case terminated:
		return nil
	case err != nil:
		p.Usage(args)
		return &ExitError{Code: 1, Message: err.Error()}
	case len(c.diagrams) == 0:
		p.Usage(args)
		return &ExitError{Code: 1}
	}

	var file *config.File
	if c.configPath != "" {
		if file, err = config.Load(c.configPath); err != nil {
			return &ExitError{Code: 1, Message: err.Error()}
		}
	}

	level, format := file.LogSettings()
	if c.logLevelSet || level == "" {
		level = c.logLevel
	}
	if c.logFormatSet || format == "" {
		format = c.logFormat
	}
	loggers, err := logging.New(stdout, stderr, level, format)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}

	opts, err := conversion.Normalize(c.flags().Or(file.Flags()))
	if err != nil {
		loggers.Err.Error("invalid options", "err", err)
		return &ExitError{Code: 1}
	}

	jobs, err := conversion.Resolve(c.diagrams)
	if err != nil {
		loggers.Err.Error("invalid argument", "err", err)
		p.Usage(args)
		return &ExitError{Code: 1}
	}

	r := rqx.New(logging.WithLoggers(ctx, loggers), "cli", version)
	a := &app.App{
		Clock: systemClock{},
		DMN:   &render.DMN{},
		BPMN:  &render.BPMN{},
	}

	table, region, endpoint := file.JournalSettings()
	if c.table != "" {
		table, region, endpoint = c.table, c.region, c.endpoint
	}
	if table != "" {
		journal, err := newJournal(ctx, table, region, endpoint)
		if err != nil {
			loggers.Err.Error("unable to open journal", "err", err)
			return &ExitError{Code: 1}
		}
		a.Runs = journal
	}

	if err := a.Convert(r, jobs, opts); err != nil {
		return &ExitError{Code: 1}
	}
	return nil
}

func (c *cli) flags() conversion.Flags {
	var flags conversion.Flags
	if c.minDimensionsSet {
		flags.MinDimensions = &c.minDimensions
	}
	if c.dmnViewSet {
		flags.DMNView = &c.dmnView
	}
	if c.titleSet {
		flags.Title = &c.title
	}
	if c.footerSet {
		flags.Footer = &c.footer
	}
	if c.scaleSet {
		flags.Scale = &c.scale
	}
	return flags
}

func newJournal(ctx context.Context, table, region, endpoint string) (*storage.DynamoStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load AWS config")
	}

	svc := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return storage.NewWithTableName(svc, table), nil
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }
