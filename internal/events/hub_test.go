package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfagnish/mergington-activities/internal/catalog"
)

func TestHubDeliversToAllSubscribers(t *testing.T) {
	h := NewHub(4, nil)
	_, a, cancelA := h.Subscribe()
	defer cancelA()
	_, b, cancelB := h.Subscribe()
	defer cancelB()

	h.RosterChanged(catalog.Change{ID: "1", Activity: "Chess Club"})

	assert.Equal(t, "1", (<-a).ID)
	assert.Equal(t, "1", (<-b).ID)
}

func TestHubCancelClosesChannel(t *testing.T) {
	var counts []int
	h := NewHub(1, func(n int) { counts = append(counts, n) })

	id, ch, cancel := h.Subscribe()
	require.NotEmpty(t, id)
	assert.Equal(t, 1, h.Len())

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, []int{1, 0}, counts)
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	h := NewHub(1, nil)
	_, ch, cancel := h.Subscribe()
	defer cancel()

	h.RosterChanged(catalog.Change{ID: "1"})
	h.RosterChanged(catalog.Change{ID: "2"})

	assert.Equal(t, "1", (<-ch).ID)
	assert.Equal(t, uint64(1), h.Dropped())
}

func TestHubAsCatalogListener(t *testing.T) {
	h := NewHub(0, nil)
	_, ch, cancel := h.Subscribe()
	defer cancel()

	c := catalog.New(catalog.DefaultSeed(), catalog.WithListener(h))
	_, err := c.Signup("Chess Club", "listener@mergington.edu")
	require.NoError(t, err)

	change := <-ch
	assert.Equal(t, catalog.ChangeSignup, change.Kind)
	assert.Equal(t, "Chess Club", change.Activity)
	assert.Contains(t, change.Participants, "listener@mergington.edu")
}
