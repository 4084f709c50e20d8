package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutePath(t *testing.T) {
	assert.Equal(t, "/ws/{roomId}/{playerId}", RoutePath("/ws"))
	assert.Equal(t, "/ws/{roomId}/{playerId}", RoutePath("/ws/"))
	assert.Equal(t, "/{roomId}/{playerId}", RoutePath(""))
}
