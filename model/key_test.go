package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestKeyHierarchy(t *testing.T) {
	profile := ProfileKey("user-1")
	conf := NewIDKey(KindConference, 7, &profile)
	sesh := NewIDKey(KindSession, 3, &conf)

	assert.True(t, sesh.HasAncestor(conf))
	assert.True(t, sesh.HasAncestor(profile))
	assert.False(t, sesh.HasAncestor(sesh))
	assert.False(t, conf.HasAncestor(sesh))
	assert.Equal(t, []Key{conf, profile}, sesh.Ancestors())
}

func TestDecodeKey(t *testing.T) {
	profile := ProfileKey("someone@example.com")
	conf := NewIDKey(KindConference, 42, &profile)

	decoded, err := DecodeKey(conf.Encode())
	require.NoError(t, err)
	assert.Equal(t, KindConference, decoded.Kind)
	assert.Equal(t, int64(42), decoded.ID)
	require.NotNil(t, decoded.Parent)
	assert.Equal(t, "someone@example.com", decoded.Parent.Name)
	assert.True(t, decoded.Equal(conf))

	tests := []struct {
		description string
		websafe     string
	}{
		{description: "empty", websafe: ""},
		{description: "not base58", websafe: "0OIl"},
		{description: "no segments", websafe: "abc"},
	}
	for _, test := range tests {
		_, err := DecodeKey(test.websafe)
		assert.Errorf(t, err, test.description)
	}
}

func TestKeyEncodingIsCanonical(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		user := rapid.StringN(1, 20, -1).Draw(t, "user")
		id := rapid.Int64Range(1, 1<<40).Draw(t, "id")
		profile := ProfileKey(user)
		key := NewIDKey(KindConference, id, &profile)

		decoded, err := DecodeKey(key.Encode())
		if err != nil {
			t.Fatalf("decode %q: %v", key.Encode(), err)
		}
		if decoded.Encode() != key.Encode() {
			t.Fatalf("re-encoding changed key: %q != %q", decoded.Encode(), key.Encode())
		}
		if decoded.Parent == nil || decoded.Parent.Name != user {
			t.Fatalf("parent name lost for %q", user)
		}
	})
}
