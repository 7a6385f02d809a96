package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/soyeahso/zoebot/internal/domain"
	"github.com/soyeahso/zoebot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(MemoryPath, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testStore(t *testing.T) *SQLiteSessionStore {
	t.Helper()
	ss := NewSQLiteSessionStore(testDB(t))
	ss.now = func() time.Time { return fixedNow }
	return ss
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.Equal(t, MemoryPath, db.Path())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "zoebot.db")
	db, err := Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)

	v, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].Version, v)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.migrate())

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_RejectsHalfSelectedVehicle(t *testing.T) {
	db := testDB(t)

	_, err := db.sql.Exec(
		`INSERT INTO sessions (identity, login_token, account_id, created_at, updated_at) VALUES ('u', 't', 'acc', 'x', 'x')`)
	assert.Error(t, err, "account without vin must violate the CHECK constraint")
}

// --- Session Store tests ---

func TestSessionStore_GetOrCreate_New(t *testing.T) {
	ss := testStore(t)
	ctx := context.Background()

	sess, err := ss.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)

	want := &domain.Session{Identity: "user-1", CreatedAt: fixedNow, UpdatedAt: fixedNow}
	if diff := cmp.Diff(want, sess); diff != "" {
		t.Errorf("GetOrCreate mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionStore_GetOrCreate_Existing(t *testing.T) {
	ss := testStore(t)
	ctx := context.Background()

	_, err := ss.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, ss.Commit(ctx, "user-1", domain.Credentials{LoginToken: "tok", AccountID: "acc", VIN: "VF1"}, fixedNow))

	sess, err := ss.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.LoginToken)

	all, err := ss.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSessionStore_Get_NotFound(t *testing.T) {
	ss := testStore(t)
	_, err := ss.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_Commit(t *testing.T) {
	ss := testStore(t)
	ctx := context.Background()

	_, err := ss.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)

	var state domain.BootstrapState
	state.Await(5, 10*time.Minute, fixedNow)
	require.NoError(t, ss.SaveBootstrap(ctx, "user-1", state))

	at := fixedNow.Add(time.Minute)
	require.NoError(t, ss.Commit(ctx, "user-1", domain.Credentials{LoginToken: "tok", AccountID: "acc", VIN: "VF1"}, at))

	got, err := ss.Get(ctx, "user-1")
	require.NoError(t, err)

	want := &domain.Session{
		Identity:    "user-1",
		LoginToken:  "tok",
		AccountID:   "acc",
		VIN:         "VF1",
		Bootstrap:   domain.BootstrapState{Phase: domain.PhaseCommitted},
		CreatedAt:   fixedNow,
		UpdatedAt:   at,
		CommittedAt: &at,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("committed session mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionStore_Commit_WithoutPriorRecord(t *testing.T) {
	ss := testStore(t)
	ctx := context.Background()

	require.NoError(t, ss.Commit(ctx, "fresh", domain.Credentials{LoginToken: "tok", AccountID: "acc", VIN: "VF1"}, fixedNow))

	got, err := ss.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "VF1", got.VIN)
	assert.Equal(t, domain.PhaseCommitted, got.Bootstrap.Phase)
}

func TestSessionStore_Commit_InvalidLeavesSessionUnchanged(t *testing.T) {
	ss := testStore(t)
	ctx := context.Background()

	require.NoError(t, ss.Commit(ctx, "user-1", domain.Credentials{LoginToken: "old", AccountID: "acc", VIN: "VF1"}, fixedNow))
	before, err := ss.Get(ctx, "user-1")
	require.NoError(t, err)

	err = ss.Commit(ctx, "user-1", domain.Credentials{LoginToken: "new", AccountID: "acc2"}, fixedNow.Add(time.Hour))
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	after, err := ss.Get(ctx, "user-1")
	require.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("session changed after rejected commit (-before +after):\n%s", diff)
	}
}

func TestSessionStore_SaveBootstrap_KeepsCredentials(t *testing.T) {
	ss := testStore(t)
	ctx := context.Background()

	require.NoError(t, ss.Commit(ctx, "user-1", domain.Credentials{LoginToken: "tok", AccountID: "acc", VIN: "VF1"}, fixedNow))

	var state domain.BootstrapState
	state.Await(3, time.Minute, fixedNow)
	require.NoError(t, ss.SaveBootstrap(ctx, "user-1", state))

	got, err := ss.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.LoginToken)
	assert.Equal(t, "VF1", got.VIN)
	assert.Equal(t, domain.PhaseAwaitingToken, got.Bootstrap.Phase)
	assert.Equal(t, 3, got.Bootstrap.TurnsLeft)
	assert.True(t, got.Bootstrap.Deadline.Equal(fixedNow.Add(time.Minute)))

	require.NoError(t, ss.SaveBootstrap(ctx, "user-1", domain.BootstrapState{}))
	got, err = ss.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BootstrapState{}, got.Bootstrap)
}

func TestSessionStore_List(t *testing.T) {
	ss := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := ss.GetOrCreate(ctx, id)
		require.NoError(t, err)
	}

	all, err := ss.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSessionStore_List_Empty(t *testing.T) {
	ss := testStore(t)
	all, err := ss.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
