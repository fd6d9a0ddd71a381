package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"

	"github.com/sjansen/bpmn-to-image/internal/domain/conversion"
	"github.com/sjansen/bpmn-to-image/internal/rqx"
)

// DefaultTableName is used when a more specific name isn't provided.
const DefaultTableName = "bpmn-to-image"

const eventTTL = 30 * 24 * time.Hour

// ErrDeleteInProgress is returned when table creation fails because
// a table with the same name was recently deleted.
var ErrDeleteInProgress = errors.New("table deletion in progress")

// ErrCreateTimedOut is returned when table creation takes too long.
var ErrCreateTimedOut = errors.New("timed out waiting for table creation")

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	CreateTable(context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(context.Context, *dynamodb.TransactWriteItemsInput, ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	UpdateTimeToLive(context.Context, *dynamodb.UpdateTimeToLiveInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// DynamoStore journals conversion runs in DynamoDB.
type DynamoStore struct {
	svc   DynamoAPI
	table *string
	clock Clock
	poll  time.Duration
}

// Run summarizes a journaled conversion run.
type Run struct {
	Version int64
	Outcome string
	Jobs    int
	Failure string
}

// Run outcomes.
const (
	OutcomeRunning  = "running"
	OutcomeFinished = "finished"
	OutcomeFailed   = "failed"
)

// New creates a DynamoStore instance using default values.
func New(svc DynamoAPI) *DynamoStore {
	return NewWithTableName(svc, DefaultTableName)
}

// NewWithTableName create a DynamoStore instance, overriding the default
// table name.
func NewWithTableName(svc DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{
		svc:   svc,
		table: aws.String(table),
		clock: systemClock{},
		poll:  time.Second,
	}
}

// WithClock replaces the clock used to timestamp events.
func (s *DynamoStore) WithClock(c Clock) *DynamoStore {
	s.clock = c
	return s
}

func runEntityID(rqx *rqx.RequestContext) string {
	return "run:" + rqx.RunID.String()
}

// StartRun records a new run of the given number of jobs.
func (s *DynamoStore) StartRun(rqx *rqx.RequestContext, jobs int) error {
	id := runEntityID(rqx)

	t := &writeTransaction{}
	err := t.addPut(&types.Put{
		TableName: s.table,
		Item: map[string]types.AttributeValue{
			"entity":      &types.AttributeValueMemberS{Value: id},
			"revision":    &types.AttributeValueMemberN{Value: "0"},
			"entity_type": &types.AttributeValueMemberS{Value: "run"},
			"version":     &types.AttributeValueMemberN{Value: "1"},
			"description": &types.AttributeValueMemberS{Value: rqx.Client.Type + " " + rqx.Client.Version},
			"summary": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"outcome": &types.AttributeValueMemberS{Value: OutcomeRunning},
				"jobs":    &types.AttributeValueMemberN{Value: strconv.Itoa(jobs)},
			}},
		},
		ConditionExpression: aws.String(
			"attribute_not_exists(entity)",
		),
	}).addEvent(rqx, s.table, s.clock.Now(), id, 1,
		"run-started",
		map[string]string{
			"jobs": strconv.Itoa(jobs),
		},
	)
	if err != nil {
		return err
	}

	return t.exec(rqx.Ctx, s.svc)
}

// JobDispatched records that a single job was handed to its renderer.
func (s *DynamoStore) JobDispatched(rqx *rqx.RequestContext, job conversion.Job) error {
	return s.record(rqx, "job-dispatched", map[string]string{
		"kind":    job.Kind.String(),
		"input":   job.Input,
		"outputs": strings.Join(job.Outputs, ","),
	})
}

// BatchDispatched records that the queued BPMN jobs were handed over at once.
func (s *DynamoStore) BatchDispatched(rqx *rqx.RequestContext, jobs []conversion.ConversionJob) error {
	inputs := make([]string, 0, len(jobs))
	for _, job := range jobs {
		inputs = append(inputs, job.Input)
	}
	return s.record(rqx, "batch-dispatched", map[string]string{
		"kind":   conversion.KindBPMN.String(),
		"inputs": strings.Join(inputs, ","),
	})
}

// FinishRun settles the run. A nil cause marks it finished, anything else
// marks it failed.
func (s *DynamoStore) FinishRun(rqx *rqx.RequestContext, cause error) error {
	id := runEntityID(rqx)
	item, err := s.getRun(rqx.Ctx, id, "version", true)
	if err != nil {
		return err
	}

	outcome, typ, failure := OutcomeFinished, "run-finished", ""
	if cause != nil {
		outcome, typ, failure = OutcomeFailed, "run-failed", cause.Error()
	}

	t := &writeTransaction{}
	version := item.Version + 1
	err = t.addUpdate(&types.Update{
		TableName: s.table,
		Key:       runKey(id),
		ConditionExpression: aws.String(
			"summary.outcome = :running AND version = :previous",
		),
		UpdateExpression: aws.String(`
			SET summary.outcome = :outcome,
			    summary.failure = :failure,
			    version = :version
		`),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":running":  &types.AttributeValueMemberS{Value: OutcomeRunning},
			":previous": number(item.Version),
			":outcome":  &types.AttributeValueMemberS{Value: outcome},
			":failure":  &types.AttributeValueMemberS{Value: failure},
			":version":  number(version),
		},
	}).addEvent(rqx, s.table, s.clock.Now(), id, version,
		typ,
		map[string]string{
			"error": failure,
		},
	)
	if err != nil {
		return err
	}

	return t.exec(rqx.Ctx, s.svc)
}

// GetRun returns the summary of a journaled run.
func (s *DynamoStore) GetRun(ctx context.Context, runID string, consistent bool) (*Run, error) {
	item, err := s.getRun(ctx, "run:"+runID, "version, summary", consistent)
	if err != nil {
		return nil, err
	}

	r := &Run{
		Version: item.Version,
		Outcome: item.Summary.Outcome,
		Jobs:    item.Summary.Jobs,
		Failure: item.Summary.Failure,
	}
	return r, nil
}

func (s *DynamoStore) record(rqx *rqx.RequestContext, typ string, data map[string]string) error {
	id := runEntityID(rqx)
	item, err := s.getRun(rqx.Ctx, id, "version", true)
	if err != nil {
		return err
	}

	t := &writeTransaction{}
	version := item.Version + 1
	err = t.addUpdate(&types.Update{
		TableName: s.table,
		Key:       runKey(id),
		ConditionExpression: aws.String(
			"version = :previous",
		),
		UpdateExpression: aws.String(
			"SET version = :version",
		),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":previous": number(item.Version),
			":version":  number(version),
		},
	}).addEvent(rqx, s.table, s.clock.Now(), id, version, typ, data)
	if err != nil {
		return err
	}

	return t.exec(rqx.Ctx, s.svc)
}

// CreateTable creates the DynamoStore table, if it doesn't already exist.
// This is only intended as a convenience function to make development and
// testing easier. It is not intended for use in production.
func (s *DynamoStore) CreateTable(ctx context.Context) error {
	if ok, err := s.checkForTable(ctx); err != nil {
		return err
	} else if ok {
		return nil
	}
	if err := s.createTable(ctx); err != nil {
		return err
	}
	if err := s.waitForTable(ctx); err != nil {
		return err
	}
	return s.updateTTL(ctx)
}

func (s *DynamoStore) checkForTable(ctx context.Context) (bool, error) {
	result, err := s.svc.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: s.table,
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	switch status := result.Table.TableStatus; status {
	case types.TableStatusCreating:
		return true, s.waitForTable(ctx)
	case types.TableStatusDeleting:
		return false, ErrDeleteInProgress
	case types.TableStatusActive, types.TableStatusUpdating:
		return true, nil
	default:
		return false, errors.New("unrecognized table status: " + string(status))
	}
}

func (s *DynamoStore) createTable(ctx context.Context) error {
	_, err := s.svc.CreateTable(ctx, &dynamodb.CreateTableInput{
		BillingMode: types.BillingModePayPerRequest,
		TableName:   s.table,
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("entity"),
				KeyType:       types.KeyTypeHash,
			},
			{
				AttributeName: aws.String("revision"),
				KeyType:       types.KeyTypeRange,
			},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("entity"),
				AttributeType: types.ScalarAttributeTypeS,
			},
			{
				AttributeName: aws.String("revision"),
				AttributeType: types.ScalarAttributeTypeN,
			},
		},
	})
	return err
}

func (s *DynamoStore) getRun(ctx context.Context, id, projection string, consistent bool) (*run, error) {
	result, err := s.svc.GetItem(ctx, &dynamodb.GetItemInput{
		ConsistentRead:       aws.Bool(consistent),
		TableName:            s.table,
		Key:                  runKey(id),
		ProjectionExpression: aws.String(projection),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, errors.Errorf("run not found: %s", id)
	}

	item := &run{}
	err = attributevalue.UnmarshalMap(result.Item, item)
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (s *DynamoStore) updateTTL(ctx context.Context) error {
	_, err := s.svc.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: s.table,
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String("ttl"),
			Enabled:       aws.Bool(true),
		},
	})
	return err
}

func (s *DynamoStore) waitForTable(ctx context.Context) error {
	describeTable := &dynamodb.DescribeTableInput{
		TableName: s.table,
	}
	for i := 0; i < 60; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.poll):
		}
		result, err := s.svc.DescribeTable(ctx, describeTable)
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				continue
			}
			return err
		}
		switch result.Table.TableStatus {
		case types.TableStatusCreating:
			// continue loop
		case types.TableStatusDeleting:
			return ErrDeleteInProgress
		case types.TableStatusActive, types.TableStatusUpdating:
			return nil
		}
	}
	return ErrCreateTimedOut
}

func runKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"entity":   &types.AttributeValueMemberS{Value: id},
		"revision": &types.AttributeValueMemberN{Value: "0"},
	}
}

func number(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

type writeTransaction struct {
	ops []types.TransactWriteItem
}

func (t *writeTransaction) add(op types.TransactWriteItem) *writeTransaction {
	t.ops = append(t.ops, op)
	return t
}

func (t *writeTransaction) addEvent(
	rqx *rqx.RequestContext,
	table *string,
	now time.Time,
	entity string,
	revision int64,
	typ string,
	data map[string]string,
) error {
	event, err := attributevalue.MarshalMap(&event{
		base: base{
			ID:       entity,
			Revision: revision,
		},
		Created: now,
		TTL:     now.Add(eventTTL),
		Client: client{
			Type:     rqx.Client.Type,
			Hostname: rqx.Client.Hostname,
			Version:  rqx.Client.Version,
		},
		Type: typ,
		Data: data,
	})
	if err != nil {
		return err
	}
	t.addPut(&types.Put{
		TableName: table,
		Item:      event,
		ConditionExpression: aws.String(
			"attribute_not_exists(revision)",
		),
	})
	return nil
}

func (t *writeTransaction) addPut(op *types.Put) *writeTransaction {
	return t.add(types.TransactWriteItem{
		Put: op,
	})
}

func (t *writeTransaction) addUpdate(op *types.Update) *writeTransaction {
	return t.add(types.TransactWriteItem{
		Update: op,
	})
}

func (t *writeTransaction) exec(ctx context.Context, svc DynamoAPI) error {
	token := make([]byte, 20)
	if _, err := rand.Read(token); err != nil {
		return errors.Wrap(err, "unable to generate request token")
	}

	_, err := svc.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems:      t.ops,
		ClientRequestToken: aws.String(base64.RawURLEncoding.EncodeToString(token)),
	})
	return err
}

type base struct {
	ID       string `dynamodbav:"entity"`
	Revision int64  `dynamodbav:"revision"`
}

type entity struct {
	base
	EntityType  string `dynamodbav:"entity_type"`
	Version     int64  `dynamodbav:"version"`
	Description string `dynamodbav:"description"`
}

type client struct {
	Type     string `dynamodbav:"type,omitempty"`
	Hostname string `dynamodbav:"hostname,omitempty"`
	Version  string `dynamodbav:"version,omitempty"`
}

type event struct {
	base
	Created time.Time `dynamodbav:"created,unixtime"`
	TTL     time.Time `dynamodbav:"ttl,unixtime"`
	Client  client    `dynamodbav:"client,omitemptyelem"`

	Type string            `dynamodbav:"type"`
	Data map[string]string `dynamodbav:"data"`
}

type run struct {
	entity
	Summary runSummary `dynamodbav:"summary"`
}
type runSummary struct {
	Outcome string `dynamodbav:"outcome"`
	Jobs    int    `dynamodbav:"jobs"`
	Failure string `dynamodbav:"failure"`
}
