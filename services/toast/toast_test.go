package toast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPushDrain(t *testing.T) {
	sink := NewSink(3*time.Second, 5*time.Second).(*memorySink)
	now := time.Now()
	sink.nowFunc = func() time.Time { return now }

	sink.Push("c1", KindSuccess, "saved")
	sink.Push("c1", KindError, "broke")
	sink.Push("c2", KindSuccess, "other client")

	toasts := sink.Drain("c1")
	if assert.Len(t, toasts, 2) {
		assert.Equal(t, KindSuccess, toasts[0].Kind)
		assert.Equal(t, "saved", toasts[0].Message)
		assert.Equal(t, now.Add(3*time.Second), toasts[0].ExpiresAt)
		assert.Equal(t, KindError, toasts[1].Kind)
		assert.Equal(t, now.Add(5*time.Second), toasts[1].ExpiresAt, "errors linger longer")
	}

	// draining clears the queue
	assert.Nil(t, sink.Drain("c1"))

	// other clients are unaffected
	assert.Len(t, sink.Drain("c2"), 1)
}

func TestDrainDropsExpired(t *testing.T) {
	sink := NewSink(3*time.Second, 5*time.Second).(*memorySink)
	now := time.Now()
	sink.nowFunc = func() time.Time { return now }

	sink.Push("c1", KindSuccess, "old")
	now = now.Add(4 * time.Second)
	sink.Push("c1", KindError, "fresh")

	toasts := sink.Drain("c1")
	if assert.Len(t, toasts, 1) {
		assert.Equal(t, "fresh", toasts[0].Message)
	}
}

func TestPushIgnoresBlank(t *testing.T) {
	sink := NewSink(time.Second, time.Second)

	sink.Push("", KindSuccess, "no client")
	sink.Push("c1", KindSuccess, "")

	assert.Nil(t, sink.Drain(""))
	assert.Nil(t, sink.Drain("c1"))
}
