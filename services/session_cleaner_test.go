package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/akinalp/scaffoldr/models"
	"github.com/akinalp/scaffoldr/pkg"
)

func TestSessionCleaner(t *testing.T) {
	e := newEnv(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	u := e.user(t, "a@b.co")

	expired := &models.Session{UserID: u.ID, RefreshToken: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	live := &models.Session{UserID: u.ID, RefreshToken: "new", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, e.sessions.Create(ctx, expired))
	require.NoError(t, e.sessions.Create(ctx, live))

	cleaner := NewSessionCleaner(e.sessions, time.Hour, zaptest.NewLogger(t))
	cleaner.Start()
	cleaner.Start() // no second loop

	require.Eventually(t, func() bool {
		_, err := e.sessions.GetByRefreshToken(ctx, "old")
		return err != nil
	}, 5*time.Second, 10*time.Millisecond)

	cleaner.Stop()
	cleaner.Stop()

	_, err := e.sessions.GetByRefreshToken(ctx, "old")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = e.sessions.GetByRefreshToken(ctx, "new")
	assert.NoError(t, err)
}

func TestSessionCleaner_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	NewSessionCleaner(nil, time.Hour, zaptest.NewLogger(t)).Stop()
}
