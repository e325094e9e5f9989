package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ExecutionRepositoryContractTest is a reusable suite that verifies an adapter complies with
// ports.ExecutionRepository. newRepo must return an empty repository on every call.
func ExecutionRepositoryContractTest(t *testing.T, newRepo func(t *testing.T) ports.ExecutionRepository) {
	t.Helper()

	flow := &domain.FlowDefinition{ID: "welcome", StartBlockID: "start"}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("Create_And_LoadActive", func(t *testing.T) {
		repo := newRepo(t)
		exec := domain.NewExecution("exec-1", flow, "acme", "5511999", now)
		require.NoError(t, repo.Create(ctx, exec))

		got, err := repo.LoadActive(ctx, "acme", "5511999")
		require.NoError(t, err)
		assert.Equal(t, "exec-1", got.ID)
		assert.Equal(t, "start", got.CurrentBlockID)
		assert.Equal(t, domain.StatusActive, got.Status)

		byID, err := repo.Get(ctx, "exec-1")
		require.NoError(t, err)
		assert.Equal(t, "5511999", byID.ContactAddress)
	})

	t.Run("Create_Conflict", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, domain.NewExecution("exec-1", flow, "acme", "5511999", now)))

		err := repo.Create(ctx, domain.NewExecution("exec-2", flow, "acme", "5511999", now))
		assert.ErrorIs(t, err, domain.ErrConflict)

		// Other tenants and contacts are independent.
		assert.NoError(t, repo.Create(ctx, domain.NewExecution("exec-3", flow, "other", "5511999", now)))
		assert.NoError(t, repo.Create(ctx, domain.NewExecution("exec-4", flow, "acme", "5511000", now)))
	})

	t.Run("LoadActive_NotFound", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.LoadActive(ctx, "acme", "nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("AppendStep_CompareAndSwap", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, domain.NewExecution("exec-1", flow, "acme", "5511999", now)))

		step := domain.FlowStep{BlockID: "start", BlockType: domain.KindStart, ExecutedAt: now, NextBlockID: "menu"}
		got, err := repo.AppendStep(ctx, "exec-1", "start", step, map[string]any{"plan": "vip"}, "menu")
		require.NoError(t, err)
		assert.Equal(t, "menu", got.CurrentBlockID)
		assert.Len(t, got.History, 1)
		assert.Equal(t, "vip", got.Variables["plan"])

		// A stale writer still believes the cursor is at "start".
		_, err = repo.AppendStep(ctx, "exec-1", "start", step, nil, "other")
		assert.ErrorIs(t, err, domain.ErrConflict)

		// Last write wins per key; untouched keys survive.
		step2 := domain.FlowStep{BlockID: "menu", BlockType: domain.KindInteractiveButtons, ExecutedAt: now, InteractiveResponseID: "yes", NextBlockID: "end"}
		got, err = repo.AppendStep(ctx, "exec-1", "menu", step2, map[string]any{"answer": "yes"}, "end")
		require.NoError(t, err)
		assert.Equal(t, "vip", got.Variables["plan"])
		assert.Equal(t, "yes", got.Variables["answer"])
		assert.Len(t, got.History, 2)
		assert.Equal(t, "yes", got.History[1].InteractiveResponseID)
	})

	t.Run("SetResumeAt", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, domain.NewExecution("exec-1", flow, "acme", "5511999", now)))

		at := now.Add(time.Minute)
		got, err := repo.SetResumeAt(ctx, "exec-1", "start", at)
		require.NoError(t, err)
		require.NotNil(t, got.ResumeAt)
		assert.True(t, got.ResumeAt.Equal(at))

		_, err = repo.SetResumeAt(ctx, "exec-1", "elsewhere", at)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("Finalize_Idempotent", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, domain.NewExecution("exec-1", flow, "acme", "5511999", now)))

		first, changed, err := repo.Finalize(ctx, "exec-1", domain.StatusCompleted)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, domain.StatusCompleted, first.Status)
		require.NotNil(t, first.CompletedAt)

		second, changed, err := repo.Finalize(ctx, "exec-1", domain.StatusTransferredHuman)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, domain.StatusCompleted, second.Status)
		require.NotNil(t, second.CompletedAt)
		assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))

		// A finalized execution no longer blocks the contact and refuses steps.
		_, err = repo.LoadActive(ctx, "acme", "5511999")
		assert.True(t, errors.Is(err, domain.ErrNotFound))

		_, err = repo.AppendStep(ctx, "exec-1", "start", domain.FlowStep{BlockID: "start"}, nil, "x")
		assert.ErrorIs(t, err, domain.ErrConflict)

		assert.NoError(t, repo.Create(ctx, domain.NewExecution("exec-2", flow, "acme", "5511999", now)))
	})

	t.Run("Finalize_NotFound", func(t *testing.T) {
		repo := newRepo(t)
		_, _, err := repo.Finalize(ctx, "missing", domain.StatusCompleted)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
