package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHappyPathTransitions(t *testing.T) {
	s := NewSession()
	require.Equal(t, StateNone, s.State())

	s.Connect(true)
	require.Equal(t, StateConnected, s.State())

	s.Authorize(true)
	require.Equal(t, StateAuthorized, s.State())

	require.NoError(t, s.BeginResolve())
	require.Equal(t, StateResolving, s.State())

	require.NoError(t, s.ResolveSucceeded())
	require.Equal(t, StateMounted, s.State())

	require.NoError(t, s.Unmount())
	require.Equal(t, StateUnmounted, s.State())
	require.True(t, s.State().Terminal())
}

func TestConnectErrorReturnsToNone(t *testing.T) {
	s := NewSession()
	s.Connect(false)
	require.Equal(t, StateNone, s.State())
}

func TestAuthorizerDenialReturnsToNone(t *testing.T) {
	s := NewSession()
	s.Connect(true)
	s.Authorize(false)
	require.Equal(t, StateNone, s.State())
}

func TestResolveFailureStaysAuthorizedNotNone(t *testing.T) {
	s := NewSession()
	s.Connect(true)
	s.Authorize(true)
	require.NoError(t, s.BeginResolve())

	require.NoError(t, s.ResolveFailed())
	require.Equal(t, StateAuthorized, s.State(), "a failed walk must not drop authorization; the peer may retry")
}

func TestRevokeForcesUnmountedFromAnyState(t *testing.T) {
	s := NewSession()
	s.Connect(true)
	s.Authorize(true)
	s.Revoke()
	require.Equal(t, StateUnmounted, s.State())
}

func TestIllegalTransitionsReturnError(t *testing.T) {
	s := NewSession()
	require.Error(t, s.BeginResolve())
	require.Error(t, s.ResolveSucceeded())
	require.Error(t, s.Unmount())
}
