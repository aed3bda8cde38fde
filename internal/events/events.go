package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicUsers   = "user_events"
	TopicCourses = "course_events"
)

type Event struct {
	Type string         `json:"type"`
	ID   string         `json:"id"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

func New(typ, id string, data map[string]any) Event {
	return Event{Type: typ, ID: id, At: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event Event) error
}

type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}}
}

func encode(topic, key string, event Event) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	return kafka.Message{Topic: topic, Key: []byte(key), Value: data}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event Event) error {
	msg, err := encode(topic, key, event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events map[string][]Event
}

func (r *Recorder) Publish(_ context.Context, topic, _ string, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string][]Event)
	}
	r.events[topic] = append(r.events[topic], event)
	return nil
}

func (r *Recorder) Events(topic string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events[topic]...)
}

// Types lists the event types published on topic, in order.
func (r *Recorder) Types(topic string) []string {
	var out []string
	for _, e := range r.Events(topic) {
		out = append(out, e.Type)
	}
	return out
}
