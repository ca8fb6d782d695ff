package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lockstep/pkg/cycle"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/report"
	"github.com/aretw0/lockstep/pkg/synchronizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore implementation
// adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	sample := &report.Report{
		Digest:       "abc123",
		Mode:         report.ModeBoth,
		Nodes:        8,
		Instructions: 2,
		Single:       &report.SingleAnswer{Start: "AAA", Goal: "ZZZ", Steps: 6},
		Multi: &report.MultiAnswer{
			StartSuffix: "A",
			GoalSuffix:  "Z",
			Steps:       6,
			Method:      synchronizer.MethodLCM,
			Tokens:      []cycle.Record{cycle.Periodic("11A", 2, 2), cycle.Periodic("22A", 3, 3)},
		},
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, sample), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sample.Digest, loaded.Digest)
		require.NotNil(t, loaded.Single)
		assert.Equal(t, 6, loaded.Single.Steps)
		require.NotNil(t, loaded.Multi)
		assert.Equal(t, synchronizer.MethodLCM, loaded.Multi.Method)
		require.Len(t, loaded.Multi.Tokens, 2)
		assert.Equal(t, 3, loaded.Multi.Tokens[1].Period)
	})

	t.Run("Isolation", func(t *testing.T) {
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		loaded.Single.Steps = 999

		again, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 6, again.Single.Steps, "mutating a loaded report must not change the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrResultNotFound)
	})

	t.Run("List", func(t *testing.T) {
		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, key)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrResultNotFound)

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, keys, key)
	})
}
