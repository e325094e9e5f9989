package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/fluxo/pkg/adapters/redis"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/aretw0/fluxo/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestExecutionRepository_Contract(t *testing.T) {
	tests.ExecutionRepositoryContractTest(t, func(t *testing.T) ports.ExecutionRepository {
		_, client := newClient(t)
		return redis.NewExecutionRepository(client)
	})
}

func TestExecutionRepository_Keys(t *testing.T) {
	mr, client := newClient(t)
	repo := redis.NewExecutionRepository(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	flow := &domain.FlowDefinition{ID: "welcome", StartBlockID: "start"}
	exec := domain.NewExecution("exec-1", flow, "acme", "5511999", time.Now())
	require.NoError(t, repo.Create(ctx, exec))

	assert.True(t, mr.Exists("custom:app:execution:exec-1"))
	got, err := mr.Get("custom:app:active:acme:5511999")
	require.NoError(t, err)
	assert.Equal(t, "exec-1", got)

	_, _, err = repo.Finalize(ctx, "exec-1", domain.StatusCompleted)
	require.NoError(t, err)
	assert.False(t, mr.Exists("custom:app:active:acme:5511999"))
}

func TestExecutionRepository_FinalizedTTL(t *testing.T) {
	mr, client := newClient(t)
	repo := redis.NewExecutionRepository(client, redis.WithTTL(time.Hour))
	ctx := context.Background()

	flow := &domain.FlowDefinition{ID: "welcome", StartBlockID: "start"}
	require.NoError(t, repo.Create(ctx, domain.NewExecution("exec-1", flow, "acme", "5511999", time.Now())))

	// Active executions never expire.
	mr.FastForward(2 * time.Hour)
	_, err := repo.Get(ctx, "exec-1")
	require.NoError(t, err)

	_, _, err = repo.Finalize(ctx, "exec-1", domain.StatusCompleted)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = repo.Get(ctx, "exec-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExecutionRepository_ConcurrentCreate(t *testing.T) {
	_, client := newClient(t)
	repo := redis.NewExecutionRepository(client)
	ctx := context.Background()
	flow := &domain.FlowDefinition{ID: "welcome", StartBlockID: "start"}

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "exec-" + string(rune('a'+i))
			errs[i] = repo.Create(ctx, domain.NewExecution(id, flow, "acme", "5511999", time.Now()))
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, created)
}

func TestContactStore(t *testing.T) {
	_, client := newClient(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := redis.NewContactStore(client, redis.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := store.Get(ctx, "acme", "5511999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Upsert(ctx, "acme", "5511999", domain.ContactInFlow))
	require.NoError(t, store.Upsert(ctx, "acme", "5511999", domain.ContactHuman))

	rec, err := store.Get(ctx, "acme", "5511999")
	require.NoError(t, err)
	assert.Equal(t, domain.ContactHuman, rec.Status)
	assert.True(t, rec.UpdatedAt.Equal(now))
}

func TestConversationLog(t *testing.T) {
	_, client := newClient(t)
	log := redis.NewConversationLog(client, redis.WithMaxLogLength(2))
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, log.Append(ctx, ports.MessageRecord{
			TenantID:  "acme",
			Contact:   "5511999",
			Direction: ports.Outbound,
			Kind:      "text",
			Text:      text,
		}))
	}

	recs, err := log.Records(ctx, "acme", "5511999")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "two", recs[0].Text)
	assert.Equal(t, "three", recs[1].Text)

	other, err := log.Records(ctx, "acme", "nobody")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDelayQueue(t *testing.T) {
	_, client := newClient(t)
	q := redis.NewDelayQueue(client)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, q.Schedule(ctx, ports.Wakeup{ExecutionID: "late", BlockID: "wait"}, base.Add(time.Hour)))
	require.NoError(t, q.Schedule(ctx, ports.Wakeup{ExecutionID: "soon", BlockID: "wait"}, base.Add(time.Minute)))

	due, err := q.Due(ctx, base)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = q.Due(ctx, base.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "soon", due[0].ExecutionID)
	assert.Equal(t, "wait", due[0].BlockID)

	// Popped wake-ups are gone.
	due, err = q.Due(ctx, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDelayQueue_SkipsUnreadableMembers(t *testing.T) {
	mr, client := newClient(t)
	q := redis.NewDelayQueue(client)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := mr.ZAdd(redis.DefaultPrefix+"delays", float64(base.UnixMilli()), "{not json")
	require.NoError(t, err)
	require.NoError(t, q.Schedule(ctx, ports.Wakeup{ExecutionID: "after", BlockID: "wait"}, base.Add(time.Second)))

	due, err := q.Due(ctx, base.Add(time.Minute))
	assert.ErrorContains(t, err, "failed to unmarshal wakeup")
	require.Len(t, due, 1)
	assert.Equal(t, "after", due[0].ExecutionID)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
