package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_DeliversInSubscriptionOrder(t *testing.T) {
	h := NewHub()
	var got []string

	h.Subscribe("cart:a", func(p any) { got = append(got, "first:"+p.(string)) })
	h.Subscribe("cart:a", func(p any) { got = append(got, "second:"+p.(string)) })
	h.Subscribe("cart:b", func(p any) { got = append(got, "other:"+p.(string)) })

	h.Publish("cart:a", "x")

	assert.Equal(t, []string{"first:x", "second:x"}, got)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	calls := 0

	unsub := h.Subscribe("feed", func(any) { calls++ })
	h.Publish("feed", nil)
	unsub()
	unsub()
	h.Publish("feed", nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, h.Subscribers("feed"))
}

func TestHub_UnsubscribeDuringPublish(t *testing.T) {
	h := NewHub()
	calls := 0

	var unsub func()
	unsub = h.Subscribe("t", func(any) {
		calls++
		unsub()
	})
	h.Subscribe("t", func(any) { calls++ })

	h.Publish("t", nil)
	h.Publish("t", nil)

	assert.Equal(t, 3, calls)
}
