package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/suite"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type EventType string

const (
	EventTypeRunStarted   EventType = "run.started"
	EventTypeCaseFinished EventType = "case.finished"
	EventTypeRunFinished  EventType = "run.finished"
)

type Event interface {
	GetType() EventType
}

type RunStartedEvent struct {
	RunID     uuid.UUID `json:"run_id"`
	NodeURL   string    `json:"node_url"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	Cases     []string  `json:"cases"`
}

func (e RunStartedEvent) GetType() EventType {
	return EventTypeRunStarted
}

type CaseFinishedEvent struct {
	RunID    uuid.UUID     `json:"run_id"`
	Case     string        `json:"case"`
	Status   suite.Status  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

func (e CaseFinishedEvent) GetType() EventType {
	return EventTypeCaseFinished
}

type RunFinishedEvent struct {
	RunID     uuid.UUID     `json:"run_id"`
	OK        bool          `json:"ok"`
	Cancelled bool          `json:"cancelled"`
	Run       int           `json:"run"`
	Passed    int           `json:"passed"`
	Failures  int           `json:"failures"`
	Errors    int           `json:"errors"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration_ns"`
}

func (e RunFinishedEvent) GetType() EventType {
	return EventTypeRunFinished
}

// PublishFunc sends data on subject. (*nats.Conn).Publish satisfies it.
type PublishFunc func(subject string, data []byte) error

// Publisher forwards run progress to NATS as JSON events on
// <subject>.<event type>.
type Publisher struct {
	subject string
	publish PublishFunc
	conn    *nats.Conn
}

func NewPublisher(subject string, publish PublishFunc) *Publisher {
	return &Publisher{subject: subject, publish: publish}
}

// Connect dials the NATS server at url.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("germ-rpctest"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := NewPublisher(subject, conn.Publish)
	p.conn = conn
	return p, nil
}

func (p *Publisher) Subject(t EventType) string {
	return p.subject + "." + string(t)
}

func (p *Publisher) Publish(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", e.GetType(), err)
	}
	return p.publish(p.Subject(e.GetType()), data)
}

// Close flushes pending messages and closes the connection, if any.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	defer p.conn.Close()
	return p.conn.Flush()
}

func (p *Publisher) RunStarted(_ context.Context, info suite.RunInfo) error {
	return p.Publish(RunStartedEvent{
		RunID:     info.ID,
		NodeURL:   info.NodeURL,
		Version:   info.Version,
		StartedAt: info.StartedAt,
		Cases:     info.Cases,
	})
}

func (p *Publisher) CaseFinished(_ context.Context, info suite.RunInfo, result suite.Result) error {
	return p.Publish(CaseFinishedEvent{
		RunID:    info.ID,
		Case:     result.Name,
		Status:   result.Status,
		Message:  result.Message,
		Duration: result.Duration,
	})
}

func (p *Publisher) RunFinished(_ context.Context, info suite.RunInfo, summary suite.Summary) error {
	return p.Publish(RunFinishedEvent{
		RunID:    info.ID,
		OK:        summary.OK(),
		Cancelled: summary.Cancelled,
		Run:       summary.Run,
		Passed:    summary.Passed,
		Failures:  summary.Failures,
		Errors:    summary.Errors,
		Skipped:   summary.Skipped,
		Duration:  summary.Duration,
	})
}
