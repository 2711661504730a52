package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("chat only creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})

	t.Run("all ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Chat:      &mockChatService{},
			Retrieval: &mockRetrievalService{},
			Index:     &mockIndexService{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingChatService)
	})

	t.Run("chat only is valid", func(t *testing.T) {
		ports := &Ports{Chat: &mockChatService{}}
		assert.NoError(t, ports.Validate())
	})
}
