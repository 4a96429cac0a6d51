package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflakeIDJSON(t *testing.T) {
	id := SnowflakeID(1790000000000000123)
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"1790000000000000123"`, string(data))

	var fromString, fromNumber SnowflakeID
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`42`), &fromNumber))
	assert.Equal(t, SnowflakeID(42), fromString)
	assert.Equal(t, SnowflakeID(42), fromNumber)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &fromString))
}

func TestSnowflakeIDScan(t *testing.T) {
	var id SnowflakeID
	require.NoError(t, id.Scan(int64(7)))
	assert.Equal(t, SnowflakeID(7), id)
	require.NoError(t, id.Scan([]byte("8")))
	assert.Equal(t, SnowflakeID(8), id)
	require.NoError(t, id.Scan("9"))
	assert.Equal(t, SnowflakeID(9), id)
	assert.Error(t, id.Scan(3.5))
}

func TestNullableString(t *testing.T) {
	var body struct {
		ParentID NullableString `json:"parentId"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{}`), &body))
	assert.False(t, body.ParentID.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"parentId": null}`), &body))
	assert.True(t, body.ParentID.Set)
	assert.False(t, body.ParentID.Valid)
	assert.Nil(t, body.ParentID.Ptr())

	body.ParentID = NullableString{}
	require.NoError(t, json.Unmarshal([]byte(`{"parentId": "abc"}`), &body))
	assert.True(t, body.ParentID.Set)
	require.NotNil(t, body.ParentID.Ptr())
	assert.Equal(t, "abc", *body.ParentID.Ptr())
}
