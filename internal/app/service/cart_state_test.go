package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartIdentity(t *testing.T) {
	fresh := GuestIdentity("")
	assert.True(t, fresh.IsGuest())
	assert.False(t, fresh.HasSession())
	assert.Equal(t, PhaseGuestActive, fresh.ActivePhase())

	held := fresh.WithSession("abc123")
	assert.True(t, held.HasSession())
	assert.Equal(t, "abc123", held.RequestSessionID())

	user, mergeID := held.Authenticated()
	assert.Equal(t, UserIdentity(), user)
	assert.Equal(t, "abc123", mergeID)
	assert.Empty(t, user.RequestSessionID())
	assert.Equal(t, PhaseUserActive, user.ActivePhase())

	_, mergeID = fresh.Authenticated()
	assert.Empty(t, mergeID)

	// users are addressed by the bearer token only
	assert.Equal(t, user, user.WithSession("abc123"))
	assert.False(t, user.HasSession())

	assert.Equal(t, fresh, user.LoggedOut())
	assert.Equal(t, fresh, held.LoggedOut())
}
