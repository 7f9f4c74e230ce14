package repository_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupBunTokenStore(t *testing.T) (*repository.BunTokenStore, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	store := repository.NewBunTokenStore(db)
	require.NoError(t, store.CreateSchema(context.Background()))
	require.NoError(t, store.CreateSchema(context.Background()))

	return store, db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func assertTokenStoreContract(t *testing.T, store signup.TokenStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx)
	require.Error(t, err)
	assert.True(t, signup.IsTokenNotFound(err))
	assert.True(t, goerrors.IsNotFound(err))

	require.NoError(t, store.Save(ctx, "first"))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	require.NoError(t, store.Save(ctx, "second"))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))

	_, err = store.Get(ctx)
	assert.True(t, signup.IsTokenNotFound(err))
}

func TestBunTokenStoreContract(t *testing.T) {
	store, _ := setupBunTokenStore(t)
	assertTokenStoreContract(t, store)
}

func TestBunTokenStoreKeepsSingleRow(t *testing.T) {
	store, db := setupBunTokenStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a"))
	require.NoError(t, store.Save(ctx, "b"))
	require.NoError(t, store.Save(ctx, "c"))

	count, err := db.NewSelect().Model((*repository.ClientKVModel)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var row repository.ClientKVModel
	require.NoError(t, db.NewSelect().Model(&row).Limit(1).Scan(ctx))
	assert.Equal(t, signup.TokenKey, row.Key)
	assert.Equal(t, "c", row.Value)
}

func TestRedisTokenStoreContract(t *testing.T) {
	_, client := newTestRedis(t)
	store := repository.NewRedisTokenStore(client, "")
	assert.Equal(t, repository.DefaultRedisKey, store.Key())
	assertTokenStoreContract(t, store)
}

func TestRedisTokenStoreUsesFixedKey(t *testing.T) {
	mr, client := newTestRedis(t)
	store := repository.NewRedisTokenStore(client, "app:token")

	require.NoError(t, store.Save(context.Background(), "tok123"))

	value, err := mr.Get("app:token")
	require.NoError(t, err)
	assert.Equal(t, "tok123", value)
	assert.Equal(t, []string{"app:token"}, mr.Keys())
	assert.False(t, mr.Exists(repository.DefaultRedisKey))
}

func TestRedisTokenStoreUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	store := repository.NewRedisTokenStore(client, "")
	mr.Close()

	_, err := store.Get(context.Background())
	require.Error(t, err)
	assert.False(t, signup.IsTokenNotFound(err))
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))
}

func TestRegistrationClientPersistsIntoBunTokenStore(t *testing.T) {
	store, _ := setupBunTokenStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "stale"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"fresh"}`))
	}))
	defer srv.Close()

	client := signup.NewRegistrationClient(baseURL(srv.URL),
		signup.WithHTTPClient(srv.Client()),
		signup.WithTokenStore(store),
	)

	_, err := client.GoogleLogin(ctx, "code")
	require.NoError(t, err)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

type baseURL string

func (b baseURL) GetBaseURL() string           { return string(b) }
func (b baseURL) GetTimeout() time.Duration    { return time.Second }
func (b baseURL) GetWithCredentials() bool     { return false }
func (b baseURL) GetGoogleClientID() string    { return "" }
func (b baseURL) GetGoogleRedirectURL() string { return "" }
