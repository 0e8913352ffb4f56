package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/txlog/internal/adapters/store/memory"
	"go.trai.ch/txlog/internal/adapters/store/storetest"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) ports.TransactionStore {
		return memory.New()
	})
}

func TestStore_CancelledContext(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Create(ctx, domain.NewTransaction())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Len())
}
