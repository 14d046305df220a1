package registration

import (
	"context"
	"testing"

	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, s database.Store, conf model.Conference, name string) model.Session {
	t.Helper()
	ctx := context.Background()
	key, err := s.AllocateID(ctx, model.KindSession, &conf.Key)
	require.NoError(t, err)
	sesh, err := model.NewSession(key, model.SessionForm{Name: name, Speaker: "Rob"})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, key, sesh))
	return *sesh
}

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	s := database.NewMemoryStore()
	c := NewCoordinator(s, nil, nil)
	conf := newConference(t, s, 10)
	first := newSession(t, s, conf, "Concurrency")
	second := newSession(t, s, conf, "Generics")

	view, err := c.AddToWishlist(ctx, u1, second.Key.Encode())
	require.NoError(t, err)
	assert.Equal(t, "Generics", view.Name)

	_, err = c.AddToWishlist(ctx, u1, first.Key.Encode())
	require.NoError(t, err)

	_, err = c.AddToWishlist(ctx, u1, second.Key.Encode())
	assert.True(t, errors.Is(err, errors.KindConflict))

	sessions, err := c.ListWishlist(ctx, u1)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "Generics", sessions[0].Name)
	assert.Equal(t, "Concurrency", sessions[1].Name)

	empty, err := c.ListWishlist(ctx, u2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWishlistRejects(t *testing.T) {
	ctx := context.Background()
	s := database.NewMemoryStore()
	c := NewCoordinator(s, nil, nil)
	conf := newConference(t, s, 10)
	missing := model.NewIDKey(model.KindSession, 999, &conf.Key)

	tests := []struct {
		description  string
		websafeKey   string
		expectedKind errors.Kind
	}{
		{description: "conference key", websafeKey: conf.Key.Encode(), expectedKind: errors.KindBadRequest},
		{description: "malformed key", websafeKey: "???", expectedKind: errors.KindBadRequest},
		{description: "missing session", websafeKey: missing.Encode(), expectedKind: errors.KindNotFound},
	}
	for _, test := range tests {
		_, err := c.AddToWishlist(ctx, u1, test.websafeKey)
		assert.Equalf(t, test.expectedKind, errors.KindOf(err), test.description)
	}
}

func TestWishlistSkipsVanishedSessions(t *testing.T) {
	ctx := context.Background()
	s := database.NewMemoryStore()
	c := NewCoordinator(s, nil, nil)
	conf := newConference(t, s, 10)
	kept := newSession(t, s, conf, "Kept")
	gone := model.NewIDKey(model.KindSession, 999, &conf.Key)

	prof := model.NewProfile(u1)
	prof.SessionKeysWishlist.Add(gone.Encode())
	prof.SessionKeysWishlist.Add(kept.Key.Encode())
	require.NoError(t, s.Put(ctx, prof.Key, prof))

	sessions, err := c.ListWishlist(ctx, u1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Kept", sessions[0].Name)
}
