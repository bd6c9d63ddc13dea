package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"socialmedia/internal/adapter/sqlite"
	"socialmedia/internal/adapter/sqlstore"
	"socialmedia/internal/domain"
	"socialmedia/internal/security/password"

	"github.com/stretchr/testify/require"
)

var testHasher = password.Argon2id{Params: password.Argon2Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32}}

func openTestPool(t *testing.T) *sqlstore.Pool {
	t.Helper()
	pool, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), sqlstore.Options{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func requireReleased(t *testing.T, pool *sqlstore.Pool) {
	t.Helper()
	require.Zero(t, pool.DB().Stats().InUse, "connection not released")
}

func TestAccountRepo_CreateGetRoundTrip(t *testing.T) {
	req := require.New(t)
	pool := openTestPool(t)
	repo := sqlstore.NewAccountRepo(pool, testHasher)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.Account{AccountID: 99, Username: "testuser1", Password: "password"})
	req.NoError(err)
	req.NotZero(created.AccountID)
	req.NotEqual(int64(99), created.AccountID, "input id must be ignored")
	req.NotEqual("password", created.Password)
	req.True(testHasher.Verify("password", created.Password))

	got, ok, err := repo.Get(ctx, created.AccountID)
	req.NoError(err)
	req.True(ok)
	req.Equal(created, got)

	byName, ok, err := repo.FindByUsername(ctx, "testuser1")
	req.NoError(err)
	req.True(ok)
	req.Equal(created, byName)

	_, ok, err = repo.FindByUsername(ctx, "TESTUSER1")
	req.NoError(err)
	req.False(ok, "username lookup is case-sensitive")

	requireReleased(t, pool)
}

func TestAccountRepo_GetMissing(t *testing.T) {
	repo := sqlstore.NewAccountRepo(openTestPool(t), testHasher)

	_, ok, err := repo.Get(context.Background(), 12345)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAccountRepo_DuplicateUsername(t *testing.T) {
	repo := sqlstore.NewAccountRepo(openTestPool(t), testHasher)
	ctx := context.Background()

	_, err := repo.Create(ctx, domain.Account{Username: "alice", Password: "pass1"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, domain.Account{Username: "alice", Password: "pass2"})
	require.ErrorIs(t, err, domain.ErrConflict)
	require.NotErrorIs(t, err, domain.ErrStorage, "a rejected write is not a storage failure")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestAccountRepo_UpdateRehashes(t *testing.T) {
	req := require.New(t)
	repo := sqlstore.NewAccountRepo(openTestPool(t), testHasher)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.Account{Username: "bob", Password: "oldpass"})
	req.NoError(err)

	updated, err := repo.Update(ctx, domain.Account{AccountID: created.AccountID, Username: "bob", Password: "newpass"})
	req.NoError(err)
	req.True(testHasher.Verify("newpass", updated.Password))

	got, _, err := repo.Get(ctx, created.AccountID)
	req.NoError(err)
	req.Equal(updated, got)
	req.False(testHasher.Verify("oldpass", got.Password))

	// missing id is a no-op
	_, err = repo.Update(ctx, domain.Account{AccountID: 777, Username: "ghost", Password: "whatever"})
	req.NoError(err)
}

func TestAccountRepo_DeleteForbiddenWithMessages(t *testing.T) {
	req := require.New(t)
	pool := openTestPool(t)
	accounts := sqlstore.NewAccountRepo(pool, testHasher)
	messages := sqlstore.NewMessageRepo(pool)
	ctx := context.Background()

	a, err := accounts.Create(ctx, domain.Account{Username: "carol", Password: "secret"})
	req.NoError(err)
	m, err := messages.Create(ctx, domain.Message{PostedBy: a.AccountID, MessageText: "hi", TimePostedEpoch: 1669947792})
	req.NoError(err)

	_, ok, err := accounts.Delete(ctx, a.AccountID)
	req.ErrorIs(err, domain.ErrConflict)
	req.NotErrorIs(err, domain.ErrStorage)
	req.False(ok)

	_, ok, err = messages.Delete(ctx, m.MessageID)
	req.NoError(err)
	req.True(ok)

	deleted, ok, err := accounts.Delete(ctx, a.AccountID)
	req.NoError(err)
	req.True(ok)
	req.Equal(a, deleted)

	requireReleased(t, pool)
}

func TestMessageRepo_CreateGetRoundTrip(t *testing.T) {
	req := require.New(t)
	pool := openTestPool(t)
	accounts := sqlstore.NewAccountRepo(pool, testHasher)
	repo := sqlstore.NewMessageRepo(pool)
	ctx := context.Background()

	a, err := accounts.Create(ctx, domain.Account{Username: "dave", Password: "secret"})
	req.NoError(err)

	created, err := repo.Create(ctx, domain.Message{MessageID: 42, PostedBy: a.AccountID, MessageText: "test message 1", TimePostedEpoch: 1669947792})
	req.NoError(err)
	req.NotZero(created.MessageID)
	req.Equal(a.AccountID, created.PostedBy)
	req.Equal("test message 1", created.MessageText)
	req.Equal(int64(1669947792), created.TimePostedEpoch)

	got, ok, err := repo.Get(ctx, created.MessageID)
	req.NoError(err)
	req.True(ok)
	req.Equal(created, got)
}

func TestMessageRepo_CreateUnknownAuthor(t *testing.T) {
	repo := sqlstore.NewMessageRepo(openTestPool(t))

	_, err := repo.Create(context.Background(), domain.Message{PostedBy: 404, MessageText: "orphan", TimePostedEpoch: 1})
	require.ErrorIs(t, err, domain.ErrValidation)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestMessageRepo_UpdateTouchesTextOnly(t *testing.T) {
	req := require.New(t)
	pool := openTestPool(t)
	accounts := sqlstore.NewAccountRepo(pool, testHasher)
	repo := sqlstore.NewMessageRepo(pool)
	ctx := context.Background()

	a, err := accounts.Create(ctx, domain.Account{Username: "erin", Password: "secret"})
	req.NoError(err)
	b, err := accounts.Create(ctx, domain.Account{Username: "frank", Password: "secret"})
	req.NoError(err)
	m, err := repo.Create(ctx, domain.Message{PostedBy: a.AccountID, MessageText: "before", TimePostedEpoch: 100})
	req.NoError(err)

	updated, err := repo.Update(ctx, domain.Message{MessageID: m.MessageID, PostedBy: b.AccountID, MessageText: "after", TimePostedEpoch: 999})
	req.NoError(err)
	req.Equal(domain.Message{MessageID: m.MessageID, PostedBy: a.AccountID, MessageText: "after", TimePostedEpoch: 100}, updated)

	missing := domain.Message{MessageID: 9999, MessageText: "nothing"}
	got, err := repo.Update(ctx, missing)
	req.NoError(err)
	req.Equal(missing, got)
}

func TestMessageRepo_DeleteTwice(t *testing.T) {
	req := require.New(t)
	pool := openTestPool(t)
	accounts := sqlstore.NewAccountRepo(pool, testHasher)
	repo := sqlstore.NewMessageRepo(pool)
	ctx := context.Background()

	a, err := accounts.Create(ctx, domain.Account{Username: "gina", Password: "secret"})
	req.NoError(err)
	m, err := repo.Create(ctx, domain.Message{PostedBy: a.AccountID, MessageText: "bye", TimePostedEpoch: 5})
	req.NoError(err)

	snap, ok, err := repo.Delete(ctx, m.MessageID)
	req.NoError(err)
	req.True(ok)
	req.Equal(m, snap)

	_, ok, err = repo.Delete(ctx, m.MessageID)
	req.NoError(err)
	req.False(ok)
}

func TestMessageRepo_FindAllByAuthor(t *testing.T) {
	req := require.New(t)
	pool := openTestPool(t)
	accounts := sqlstore.NewAccountRepo(pool, testHasher)
	repo := sqlstore.NewMessageRepo(pool)
	ctx := context.Background()

	a, err := accounts.Create(ctx, domain.Account{Username: "hank", Password: "secret"})
	req.NoError(err)
	b, err := accounts.Create(ctx, domain.Account{Username: "ivy", Password: "secret"})
	req.NoError(err)
	for _, txt := range []string{"one", "two"} {
		_, err := repo.Create(ctx, domain.Message{PostedBy: a.AccountID, MessageText: txt, TimePostedEpoch: 1})
		req.NoError(err)
	}
	_, err = repo.Create(ctx, domain.Message{PostedBy: b.AccountID, MessageText: "three", TimePostedEpoch: 1})
	req.NoError(err)

	mine, err := repo.FindAllByAuthor(ctx, a.AccountID)
	req.NoError(err)
	req.Len(mine, 2)

	none, err := repo.FindAllByAuthor(ctx, 31337)
	req.NoError(err)
	req.NotNil(none)
	req.Empty(none)

	all, err := repo.List(ctx)
	req.NoError(err)
	req.Len(all, 3)
}

type brokenProvider struct{}

func (brokenProvider) Acquire(context.Context) (*sql.Conn, error) {
	return nil, errors.New("pool exhausted")
}

func (brokenProvider) Dialect() sqlstore.Dialect { return sqlite.Dialect{} }

func TestRepos_StorageFailureIsNotAbsence(t *testing.T) {
	accounts := sqlstore.NewAccountRepo(brokenProvider{}, testHasher)
	messages := sqlstore.NewMessageRepo(brokenProvider{})
	ctx := context.Background()

	_, ok, err := accounts.Get(ctx, 1)
	require.ErrorIs(t, err, domain.ErrStorage)
	require.False(t, ok)

	_, _, err = accounts.FindByUsername(ctx, "x")
	require.ErrorIs(t, err, domain.ErrStorage)

	_, err = messages.List(ctx)
	require.ErrorIs(t, err, domain.ErrStorage)

	_, _, err = messages.Delete(ctx, 1)
	require.ErrorIs(t, err, domain.ErrStorage)
	require.False(t, domain.IsNotFound(err))
}
