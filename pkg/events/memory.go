package events

import (
	"context"
	"encoding/json"
	"sync"
)

type Recorded struct {
	Topic string
	Key   string
	Value map[string]any
}

// Memory keeps published events in process. Used by tests and by local runs
// that want to inspect what would have gone to Kafka.
type Memory struct {
	mu     sync.Mutex
	events []Recorded
}

func (m *Memory) Publish(_ context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Recorded{Topic: topic, Key: key, Value: v})
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Events() []Recorded {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Recorded, len(m.events))
	copy(out, m.events)
	return out
}
