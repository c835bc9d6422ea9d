package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/stancastle-booking/pkg/types"
)

var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func TestCache_Miss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("stancastle:availability:v1:2026-03-02").RedisNil()

	slots, found, err := NewCache(client, 30*time.Second).Get(context.Background(), monday)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_SetThenHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewCache(client, 30*time.Second)

	mock.ExpectSet("stancastle:availability:v1:2026-03-02", `["08:00","09:30"]`, 30*time.Second).SetVal("OK")
	mock.ExpectGet("stancastle:availability:v1:2026-03-02").SetVal(`["08:00","09:30"]`)

	require.NoError(t, c.Set(context.Background(), monday, []types.TimeString{"08:00", "09:30"}))

	slots, found, err := c.Get(context.Background(), monday)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []types.TimeString{"08:00", "09:30"}, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_EmptyDayIsCachedAsEmptyList(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewCache(client, time.Minute)

	mock.ExpectSet("stancastle:availability:v1:2026-03-03", `[]`, time.Minute).SetVal("OK")
	mock.ExpectGet("stancastle:availability:v1:2026-03-03").SetVal(`[]`)

	require.NoError(t, c.Set(context.Background(), monday.AddDate(0, 0, 1), nil))

	slots, found, err := c.Get(context.Background(), monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, slots)
	assert.NotNil(t, slots)
}

func TestCache_InvalidateDeduplicatesKeys(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectDel("stancastle:availability:v1:2026-03-02", "stancastle:availability:v1:2026-03-04").SetVal(2)

	err := NewCache(client, time.Minute).Invalidate(context.Background(), monday, monday, monday.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_ReadError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("stancastle:availability:v1:2026-03-02").SetErr(errors.New("connection refused"))

	_, _, err := NewCache(client, time.Minute).Get(context.Background(), monday)
	assert.ErrorIs(t, err, ErrCacheRead)
}

func TestCache_CorruptValue(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("stancastle:availability:v1:2026-03-02").SetVal(`{not json`)

	_, _, err := NewCache(client, time.Minute).Get(context.Background(), monday)
	assert.ErrorIs(t, err, ErrCacheDecode)
}
