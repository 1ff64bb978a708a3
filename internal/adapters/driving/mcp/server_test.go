package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil workspace returns error", func(t *testing.T) {
		ports := &Ports{Schemas: &mockSchemas{}}
		server, err := NewServer(ports, "test")
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingWorkspace)
	})

	t.Run("nil schemas returns error", func(t *testing.T) {
		ports := &Ports{Workspace: &mockWorkspace{}}
		server, err := NewServer(ports, "test")
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSchemas)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Workspace: &mockWorkspace{},
			Schemas:   &mockSchemas{},
		}
		server, err := NewServer(ports, "test")
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("empty ports returns workspace error first", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingWorkspace)
	})

	t.Run("workspace without schemas returns error", func(t *testing.T) {
		ports := &Ports{Workspace: &mockWorkspace{}}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingSchemas)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Workspace: &mockWorkspace{},
			Schemas:   &mockSchemas{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}
