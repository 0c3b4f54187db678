package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster[int]()

	first, cancelFirst := b.Subscribe(2)
	second, cancelSecond := b.Subscribe(1)

	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	// The full subscriber keeps only the newest values.
	assert.Equal(t, 2, <-first)
	assert.Equal(t, 3, <-first)
	assert.Equal(t, 3, <-second)

	cancelFirst()
	cancelFirst()

	_, open := <-first
	assert.False(t, open)

	b.Publish(4)
	assert.Equal(t, 4, <-second)

	cancelSecond()
	_, open = <-second
	assert.False(t, open)
	b.Publish(5)
}
