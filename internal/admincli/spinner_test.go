package admincli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdminOpWaiter_AwaitReturnsTrueOncePollSucceeds(t *testing.T) {
	w := NewAdminOpWaiter("waiting for SG drain")
	attempts := 0

	ok := w.Await(time.Second, time.Millisecond, func() bool {
		attempts++
		return attempts >= 3
	})

	assert.True(t, ok)
	assert.GreaterOrEqual(t, attempts, 3)
}

func TestAdminOpWaiter_AwaitTimesOutWhenPollNeverSucceeds(t *testing.T) {
	w := NewAdminOpWaiter("waiting forever")

	ok := w.Await(20*time.Millisecond, 5*time.Millisecond, func() bool { return false })

	assert.False(t, ok)
}
