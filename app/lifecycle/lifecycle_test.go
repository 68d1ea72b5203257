package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eadens/cakeworld/app/lifecycle"
	"github.com/eadens/cakeworld/pkg/apperr"
)

func TestTable(t *testing.T) {
	assert.True(t, lifecycle.Allowed(lifecycle.Pending, lifecycle.Approved))
	assert.True(t, lifecycle.Allowed(lifecycle.Pending, lifecycle.Cancelled))
	assert.True(t, lifecycle.Allowed(lifecycle.Approved, lifecycle.Completed))

	assert.False(t, lifecycle.Allowed(lifecycle.Approved, lifecycle.Cancelled))
	assert.False(t, lifecycle.Allowed(lifecycle.Pending, lifecycle.Completed))
	assert.False(t, lifecycle.Allowed(lifecycle.Completed, lifecycle.Pending))
	assert.False(t, lifecycle.Allowed(lifecycle.Cancelled, lifecycle.Approved))
}

func TestTerminal(t *testing.T) {
	assert.True(t, lifecycle.Completed.Terminal())
	assert.True(t, lifecycle.Cancelled.Terminal())
	assert.False(t, lifecycle.Pending.Terminal())
	assert.False(t, lifecycle.Approved.Terminal())
}

func TestParse(t *testing.T) {
	s, ok := lifecycle.Parse(" approved ")
	assert.True(t, ok)
	assert.Equal(t, lifecycle.Approved, s)

	_, ok = lifecycle.Parse("SHIPPED")
	assert.False(t, ok)
}

func TestStrictRejectsApprovedToCancelled(t *testing.T) {
	err := lifecycle.Strict{}.Check(lifecycle.Approved, lifecycle.Cancelled)
	e, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidTransition, e.Code)
	assert.NoError(t, lifecycle.Strict{}.Check(lifecycle.Pending, lifecycle.Approved))
}

func TestLenientAllowsAnyKnownStatus(t *testing.T) {
	assert.NoError(t, lifecycle.Lenient{}.Check(lifecycle.Approved, lifecycle.Cancelled))
	assert.NoError(t, lifecycle.Lenient{}.Check(lifecycle.Completed, lifecycle.Pending))
	assert.Error(t, lifecycle.Lenient{}.Check(lifecycle.Pending, "SHIPPED"))
}

func TestNextIsACopy(t *testing.T) {
	next := lifecycle.Next(lifecycle.Pending)
	next[0] = lifecycle.Completed
	assert.True(t, lifecycle.Allowed(lifecycle.Pending, lifecycle.Approved))
}
