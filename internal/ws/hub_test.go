package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func registered(h *Hub, userID string) *Client {
	c := newClient(h, nil, userID)
	h.Register(c)
	return c
}

func drain(c *Client) []string {
	var out []string
	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, string(m))
		default:
			return out
		}
	}
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	h := NewHub()
	c := registered(h, "alice")

	assert.True(t, h.Join("conv-1", c))
	assert.False(t, h.Join("conv-1", c))
	assert.Equal(t, 1, h.GroupSize("conv-1"))

	assert.Equal(t, 1, h.Deliver("conv-1", []byte("hello")))
	assert.Equal(t, []string{"hello"}, drain(c))
}

func TestHub_DeliverTargetsOneGroup(t *testing.T) {
	h := NewHub()
	alice := registered(h, "alice")
	bob := registered(h, "bob")
	aliceTab := registered(h, "alice")
	h.Join("conv-1", alice)
	h.Join("conv-1", bob)
	h.Join("conv-1", aliceTab)
	h.Join("conv-2", bob)

	assert.Equal(t, 3, h.Deliver("conv-1", []byte("one")))
	assert.Equal(t, 1, h.Deliver("conv-2", []byte("two")))
	assert.Zero(t, h.Deliver("conv-3", []byte("nobody")))

	assert.Equal(t, []string{"one"}, drain(alice))
	assert.Equal(t, []string{"one"}, drain(aliceTab))
	assert.Equal(t, []string{"one", "two"}, drain(bob))
}

func TestHub_UnregisterLeavesEveryGroup(t *testing.T) {
	h := NewHub()
	c := registered(h, "alice")
	other := registered(h, "bob")
	h.Join("conv-1", c)
	h.Join("conv-2", c)
	h.Join("conv-2", other)

	h.Unregister(c)
	h.Unregister(c)

	assert.Zero(t, h.GroupSize("conv-1"))
	assert.Equal(t, 1, h.GroupSize("conv-2"))
	assert.False(t, c.enqueue([]byte("late")))
	_, open := <-c.send
	assert.False(t, open)
}

func TestHub_BroadcastAll(t *testing.T) {
	h := NewHub()
	a := registered(h, "alice")
	b := registered(h, "bob")
	h.Join("conv-1", a)

	assert.Equal(t, 2, h.BroadcastAll([]byte("status")))
	assert.Equal(t, []string{"status"}, drain(a))
	assert.Equal(t, []string{"status"}, drain(b))
}

func TestHub_DropsSlowClients(t *testing.T) {
	h := NewHub()
	slow := registered(h, "slow")
	h.Join("conv-1", slow)

	for i := 0; i < sendBuffer; i++ {
		assert.Equal(t, 1, h.Deliver("conv-1", []byte("x")))
	}
	assert.Zero(t, h.Deliver("conv-1", []byte("overflow")))
	assert.Zero(t, h.GroupSize("conv-1"))
	assert.Len(t, drain(slow), sendBuffer)
}
