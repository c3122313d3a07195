package services

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryResolverLowercasesID(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?username=Alice", nil)

	id := QueryResolver{}.Resolve(r)

	require.Equal(t, "alice", id.ID)
	require.Equal(t, "Alice", id.Username)
}

func TestQueryResolverFallsBackToGuest(t *testing.T) {
	for _, target := range []string{"/ws", "/ws?username=", "/ws?username=%20%20"} {
		r := httptest.NewRequest("GET", target, nil)

		id := QueryResolver{}.Resolve(r)

		require.Empty(t, id.ID, "guests carry no stable id")
		require.Equal(t, "Guest", id.Username)
	}
}
