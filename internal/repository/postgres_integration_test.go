//go:build integration

package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/progress"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newPostgres(t *testing.T) *Postgres {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("onboard"),
		tcpostgres.WithUsername("onboard"),
		tcpostgres.WithPassword("onboard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := NewPostgres(strings.TrimPrefix(url, "postgres://"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestPostgresMedium(t *testing.T) {
	ctx := context.Background()
	db := newPostgres(t)

	_, err := db.Get(ctx, "missing")
	require.ErrorIs(t, err, progress.ErrMissing)

	require.NoError(t, db.Set(ctx, "k", []byte(`{"a":1}`)))
	require.NoError(t, db.Set(ctx, "k", []byte(`{"a":2}`)))

	value, err := db.Get(ctx, "k")
	require.NoError(t, err)
	require.JSONEq(t, `{"a":2}`, string(value))

	found, err := db.Exists(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, db.Delete(ctx, "k"))
	found, err = db.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestPostgresBackedStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := progress.New(newPostgres(t), progress.Options{Device: "it"})

	state := models.FreshState()
	state.CurrentUser = "a@x.com"
	state.CurrentStep = models.StepDocs
	state.UserData.Email = "a@x.com"
	state.UserData.Mobile = "9876543210"

	store.SaveAll(ctx, state, state.IdentityKeys()...)

	loaded, ok := store.Load(ctx, "a@x.com")
	require.True(t, ok)
	require.Equal(t, state, loaded)
}
