package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Get(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)

	mock.ExpectGet("blogs").RedisNil()
	_, err := store.Get(ctx, "blogs")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	mock.ExpectGet("blogs").SetVal(`[{"id":"a"}]`)
	val, err := store.Get(ctx, "blogs")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, val)

	mock.ExpectGet("blogs").SetErr(errors.New("connection refused"))
	_, err = store.Get(ctx, "blogs")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
	assert.Contains(t, err.Error(), "connection refused")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Set(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)

	mock.ExpectSet("blogs", `[]`, 0).SetVal("OK")
	require.NoError(t, store.Set(ctx, "blogs", `[]`))

	mock.ExpectSet("blogs", `[]`, 0).SetErr(errors.New("oom"))
	err := store.Set(ctx, "blogs", `[]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oom")

	assert.ErrorIs(t, store.Set(ctx, "", "x"), ErrInvalidKey)

	require.NoError(t, mock.ExpectationsWereMet())
}
