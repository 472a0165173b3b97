package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/layer-3/nftgate/adapters/store"
	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) Hit(context.Context, string, core.RateLimit, time.Time) (core.RateDecision, error) {
	return core.RateDecision{Allowed: true, Remaining: 99}, errors.New("redis unavailable")
}

func (brokenStore) Peek(context.Context, string, core.RateLimit, time.Time) (int, error) {
	return 99, errors.New("redis unavailable")
}

func newTestLimiter(t *testing.T) (*RateLimiter, *time.Time) {
	t.Helper()
	holder := store.NewMemoryStore(0)
	regular := store.NewMemoryStore(0)
	t.Cleanup(func() {
		holder.Close()
		regular.Close()
	})

	l := NewRateLimiter(
		holder, core.RateLimit{Max: 30, Window: 24 * time.Hour},
		regular, core.RateLimit{Max: 5, Window: 24 * time.Hour},
		logging.Discard(), nil,
	)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCheckLimitRegularQuota(t *testing.T) {
	l, now := newTestLimiter(t)
	ctx := context.Background()

	var fifth core.RateDecision
	for i := 0; i < 5; i++ {
		fifth = l.CheckLimit(ctx, holderWallet, false)
		require.True(t, fifth.Allowed)
	}
	assert.Equal(t, 0, fifth.Remaining)

	*now = now.Add(time.Hour)
	sixth := l.CheckLimit(ctx, holderWallet, false)
	assert.False(t, sixth.Allowed)
	assert.Equal(t, 0, sixth.Remaining)
	assert.Equal(t, fifth.ResetTime, sixth.ResetTime)

	*now = fifth.ResetTime.Add(time.Second)
	fresh := l.CheckLimit(ctx, holderWallet, false)
	assert.True(t, fresh.Allowed)
	assert.Equal(t, 4, fresh.Remaining)
	assert.Equal(t, now.Add(24*time.Hour), fresh.ResetTime)
}

func TestCheckLimitHolderQuota(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	first := l.CheckLimit(ctx, holderWallet, true)
	assert.True(t, first.Allowed)
	assert.Equal(t, 29, first.Remaining)
	assert.Equal(t, 30, l.Limit(true).Max)
	assert.Equal(t, 5, l.Limit(false).Max)
}

func TestCheckLimitClassesAreSeparate(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		l.CheckLimit(ctx, holderWallet, false)
	}

	d := l.CheckLimit(ctx, holderWallet, true)
	assert.True(t, d.Allowed)
	assert.Equal(t, 29, d.Remaining)
}

func TestRemaining(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	assert.Equal(t, 5, l.Remaining(ctx, holderWallet, false))
	l.CheckLimit(ctx, holderWallet, false)
	l.CheckLimit(ctx, holderWallet, false)
	assert.Equal(t, 3, l.Remaining(ctx, holderWallet, false))
	assert.Equal(t, 3, l.Remaining(ctx, holderWallet, false))
}

func TestStats(t *testing.T) {
	l, now := newTestLimiter(t)
	ctx := context.Background()

	l.CheckLimit(ctx, holderWallet, true)
	l.CheckLimit(ctx, "0x0000000000000000000000000000000000000001", false)
	l.CheckLimit(ctx, "0x0000000000000000000000000000000000000002", false)

	assert.Equal(t, map[string]int{ClassHolder: 1, ClassRegular: 2}, l.Stats())

	*now = now.Add(25 * time.Hour)
	assert.Equal(t, map[string]int{ClassHolder: 0, ClassRegular: 0}, l.Stats())
}

func TestCheckLimitFailsClosed(t *testing.T) {
	l := NewRateLimiter(
		brokenStore{}, core.RateLimit{Max: 30, Window: time.Hour},
		brokenStore{}, core.RateLimit{Max: 5, Window: time.Hour},
		logging.Discard(), nil,
	)

	d := l.CheckLimit(context.Background(), holderWallet, true)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 0, l.Remaining(context.Background(), holderWallet, true))
	assert.Empty(t, l.Stats())
}
