package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg, err := newMessage(TopicFeed, "post-1", map[string]any{"type": "post_created", "id": "post-1"})
	require.NoError(t, err)

	assert.Equal(t, TopicFeed, msg.Topic)
	assert.Equal(t, []byte("post-1"), msg.Key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "post_created", body["type"])
}

func TestNewMessage_Unmarshalable(t *testing.T) {
	_, err := newMessage(TopicFeed, "k", make(chan int))
	require.Error(t, err)
}

func TestNew_NoBrokersIsNop(t *testing.T) {
	p := New(nil)
	_, ok := p.(Nop)
	require.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), TopicCheckout, "k", struct{}{}))
	assert.NoError(t, p.Close())
}

func TestMemory_Records(t *testing.T) {
	m := &Memory{}
	require.NoError(t, m.Publish(context.Background(), TopicCatalog, "42", map[string]any{"type": "catalog_seeded", "count": 3}))

	evs := m.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "42", evs[0].Key)
	assert.EqualValues(t, 3, evs[0].Value["count"])
}
