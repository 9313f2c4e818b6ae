package feed

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nimasrn/baki-ledger/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresStream(t *testing.T) {
	_, adapter := helpers.SetupTestRedis(t)
	_, err := New(adapter, Config{})
	assert.Error(t, err)
}

func TestFeed_PublishAndRead(t *testing.T) {
	_, adapter := helpers.SetupTestRedis(t)
	f, err := New(adapter, Config{Stream: "ledger-events"})
	require.NoError(t, err)
	ctx := context.Background()

	events, err := f.Read(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	payload := map[string]interface{}{"item_name": "rice", "credit": 200}
	firstID, err := f.Publish(ctx, TransactionAdded, 3, 11, payload)
	require.NoError(t, err)
	_, err = f.Publish(ctx, CustomerDeleted, 3, 0, nil)
	require.NoError(t, err)

	events, err = f.Read(ctx, "0", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	added := events[0]
	assert.Equal(t, firstID, added.ID)
	assert.Equal(t, TransactionAdded, added.Type)
	assert.Equal(t, int64(3), added.CustomerID)
	assert.Equal(t, int64(11), added.TransactionID)
	assert.False(t, added.At.IsZero())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(added.Data, &body))
	assert.Equal(t, "rice", body["item_name"])

	assert.Equal(t, CustomerDeleted, events[1].Type)
	assert.Nil(t, events[1].Data)

	rest, err := f.Read(ctx, firstID, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, CustomerDeleted, rest[0].Type)
}

func TestFeed_MaxLen(t *testing.T) {
	_, adapter := helpers.SetupTestRedis(t)
	f, err := New(adapter, Config{Stream: "capped", MaxLen: 2})
	require.NoError(t, err)
	ctx := context.Background()

	for i := int64(1); i <= 4; i++ {
		_, err := f.Publish(ctx, TransactionAdded, 1, i, nil)
		require.NoError(t, err)
	}

	n, err := f.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	events, err := f.Read(ctx, "0", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(3), events[0].TransactionID)
}
