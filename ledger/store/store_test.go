package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledger "github.com/bearuzish-arch/SmartShop/ledger/logic"
)

var (
	_ ledger.Store = (*RedisStore)(nil)
	_ ledger.Store = (*PostgresStore)(nil)
)

func TestRedisStore_LoadSave(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr(), nil)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx, 3))

	_, ok, err := s.Load(ctx, ledger.BalanceKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, ledger.BalanceKey, "620"))
	v, ok, err := s.Load(ctx, ledger.BalanceKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "620", v)

	got, err := mr.Get(ledger.BalanceKey)
	require.NoError(t, err)
	assert.Equal(t, "620", got)
}

func TestRedisStore_AcceptsURL(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore("redis://"+mr.Addr()+"/0", nil)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
}

func TestRedisStore_BalanceSurvivesRestart(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	first := NewRedisStore(mr.Addr(), nil)
	l, err := ledger.Open(ctx, first)
	require.NoError(t, err)
	require.NoError(t, l.Debit(ctx, decimal.NewFromInt(380)))
	require.NoError(t, first.Close())

	second := NewRedisStore(mr.Addr(), nil)
	defer second.Close()
	reopened, err := ledger.Open(ctx, second)
	require.NoError(t, err)
	assert.True(t, reopened.Balance().Equal(decimal.NewFromInt(620)), "got %s", reopened.Balance())
}

func TestRedisStore_LoadErrorWhenServerGone(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr(), nil)
	defer s.Close()
	mr.Close()

	_, _, err := s.Load(context.Background(), ledger.BalanceKey)
	assert.Error(t, err)
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

type fakeQuerier struct {
	records map[string]string
	execs   []string
	execErr error
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if strings.HasPrefix(sql, "INSERT") {
		f.records[args[0].(string)] = args[1].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	v, ok := f.records[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func TestPostgresStore_LoadSave(t *testing.T) {
	db := &fakeQuerier{records: map[string]string{}}
	s := NewPostgresStore(db)
	ctx := context.Background()

	require.NoError(t, s.EnsureSchema(ctx))
	assert.Contains(t, db.execs[0], "CREATE TABLE IF NOT EXISTS kv_records")

	_, ok, err := s.Load(ctx, ledger.BalanceKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, ledger.BalanceKey, "1000"))
	require.NoError(t, s.Save(ctx, ledger.BalanceKey, "2000"))

	v, ok, err := s.Load(ctx, ledger.BalanceKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2000", v)
	assert.Contains(t, db.execs[1], "ON CONFLICT (key) DO UPDATE")
}

func TestPostgresStore_SaveError(t *testing.T) {
	db := &fakeQuerier{records: map[string]string{}, execErr: errors.New("connection reset")}
	s := NewPostgresStore(db)

	err := s.Save(context.Background(), ledger.BalanceKey, "1000")
	assert.ErrorContains(t, err, "connection reset")
}
