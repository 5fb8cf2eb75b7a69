package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

var at = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

type fakeSender struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSender) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{}, f.err
}

type publisherFunc func(context.Context, Event) error

func (f publisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

func TestNewAssignsID(t *testing.T) {
	e1 := New(KindVisitorRequestSubmitted, "b1", "A1", at, nil)
	e2 := New(KindVisitorRequestSubmitted, "b1", "A1", at, nil)
	assert.NotEmpty(t, e1.ID)
	assert.NotEqual(t, e1.ID, e2.ID)
}

func TestKafkaPublisher(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, "booker-events")
	event := New(KindVisitorRequestApproved, "b1", "A1", at, map[string]any{"reference": "r1"})

	require.NoError(t, pub.Publish(context.Background(), event))
	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "booker-events", rec.Topic)
	assert.Equal(t, []byte("b1"), rec.Key)

	var decoded Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, KindVisitorRequestApproved, decoded.Kind)
	assert.Equal(t, "r1", decoded.Payload["reference"])

	producer.err = errors.New("broker down")
	assert.ErrorContains(t, pub.Publish(context.Background(), event), "broker down")
}

func TestSQSPublisher(t *testing.T) {
	sender := &fakeSender{}
	pub := NewSQSPublisher(sender, "https://sqs.local/queue")
	event := New(KindVisitorRequestRejected, "b1", "A1", at, nil)

	require.NoError(t, pub.Publish(context.Background(), event))
	require.Len(t, sender.inputs, 1)
	in := sender.inputs[0]
	assert.Equal(t, "https://sqs.local/queue", *in.QueueUrl)
	assert.Equal(t, "visitor-request.rejected", *in.MessageAttributes["eventType"].StringValue)
	assert.Contains(t, *in.MessageBody, `"bookerReference":"b1"`)

	sender.err = errors.New("throttled")
	assert.Error(t, pub.Publish(context.Background(), event))
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, pub.Publish(context.Background(), New(KindVisitorLinked, "b1", "A1", at, nil)))
	assert.Contains(t, buf.String(), `"kind":"booker.visitor.linked"`)
}

func TestBestEffortSwallowsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetricsWith(reg)
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	failing := publisherFunc(func(context.Context, Event) error { return errors.New("sink down") })
	NewBestEffort(failing, time.Second, logger, metrics).
		Notify(context.Background(), New(KindVisitorRequestSubmitted, "b1", "A1", at, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishFailures.WithLabelValues(string(KindVisitorRequestSubmitted))))
	assert.Contains(t, logs.String(), "failed to publish domain event")
}

func TestBestEffortSurvivesCallerCancellation(t *testing.T) {
	metrics := NewMetricsWith(prometheus.NewRegistry())
	var sawLiveContext bool
	pub := publisherFunc(func(ctx context.Context, _ Event) error {
		sawLiveContext = ctx.Err() == nil
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewBestEffort(pub, time.Second, nil, metrics).Notify(ctx, New(KindVisitorRequestApproved, "b1", "A1", at, nil))

	assert.True(t, sawLiveContext)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Published.WithLabelValues(string(KindVisitorRequestApproved))))
}
