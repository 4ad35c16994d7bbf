package amferrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesSentinelByCode(t *testing.T) {
	err := New(BadHandle, "saImmOiSelectionObjectGet", nil)
	assert.True(t, errors.Is(err, Sentinel(BadHandle)))
	assert.False(t, errors.Is(err, Sentinel(TryAgain)))
}

func TestError_UnwrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := New(Library, "dispatch", cause)
	assert.ErrorIs(t, err, cause)
}

func TestTimeoutForHandle(t *testing.T) {
	live := TimeoutForHandle("op", false, nil)
	assert.Equal(t, Timeout, live.Code)

	stale := TimeoutForHandle("op", true, nil)
	assert.Equal(t, BadHandle, stale.Code)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeUnspecified, CodeOf(nil))
	assert.Equal(t, CodeUnspecified, CodeOf(errors.New("plain")))
	assert.Equal(t, Exist, CodeOf(New(Exist, "op", nil)))
}
