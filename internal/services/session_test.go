package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewSessionStore(time.Hour)

	_, ok := store.Get("whatsapp:+5547996077564")
	assert.False(t, ok)

	sess := &models.Session{Key: "whatsapp:+5547996077564", State: models.StateAwaitIDMedia, TenantID: 7}
	sess.Context.IDPaths = []string{"/tmp/a.jpg"}
	store.Set(sess)

	got, ok := store.Get(sess.Key)
	require.True(t, ok)
	assert.Equal(t, models.StateAwaitIDMedia, got.State)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, 1, store.Count())

	got.Context.IDPaths[0] = "/tmp/changed.jpg"
	again, _ := store.Get(sess.Key)
	assert.Equal(t, "/tmp/a.jpg", again.Context.IDPaths[0])

	store.Clear(sess.Key)
	_, ok = store.Get(sess.Key)
	assert.False(t, ok)
}

func TestSessionStoreExpires(t *testing.T) {
	store := NewSessionStore(20 * time.Millisecond)
	store.Set(&models.Session{Key: "k"})

	assert.Eventually(t, func() bool {
		_, ok := store.Get("k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
