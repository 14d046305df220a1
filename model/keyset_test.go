package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestKeySet(t *testing.T) {
	var s KeySet
	assert.True(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.False(t, s.Add("a"))
	assert.Equal(t, []string{"a", "b"}, s.Keys())

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.False(t, s.Contains("a"))
	assert.Equal(t, 1, s.Len())
}

func TestKeySetInProfileDocument(t *testing.T) {
	p := NewProfile(Identity{UserID: "u1", Email: "u1@example.com"})
	p.ConferenceKeysToAttend.Add("c2")
	p.ConferenceKeysToAttend.Add("c1")

	raw, err := bson.Marshal(p)
	require.NoError(t, err)

	var decoded Profile
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, []string{"c2", "c1"}, decoded.ConferenceKeysToAttend.Keys())
	assert.Equal(t, 0, decoded.SessionKeysWishlist.Len())
	assert.True(t, decoded.Key.Equal(ProfileKey("u1")))
}
