package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"conference-webapp/model"
	"conference-webapp/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func putConference(t *testing.T, s Store, parent *model.Key, name, city string, max int, topics ...string) model.Conference {
	t.Helper()
	ctx := context.Background()
	key, err := s.AllocateID(ctx, model.KindConference, parent)
	require.NoError(t, err)
	conf := model.Conference{
		Key:            key,
		Name:           name,
		City:           city,
		Topics:         topics,
		MaxAttendees:   max,
		SeatsAvailable: max,
	}
	require.NoError(t, s.Put(ctx, key, &conf))
	return conf
}

func names(confs []model.Conference) []string {
	out := make([]string, len(confs))
	for i, c := range confs {
		out[i] = c.Name
	}
	return out
}

func TestMemoryGetPut(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	owner := model.ProfileKey("u1")
	conf := putConference(t, s, &owner, "GopherCon", "Paris", 10, "Go")

	var got model.Conference
	require.NoError(t, s.Get(ctx, conf.Key, &got))
	assert.Equal(t, "GopherCon", got.Name)
	assert.True(t, got.Key.Equal(conf.Key))
	require.NotNil(t, got.Key.Parent)
	assert.Equal(t, "u1", got.Key.Parent.Name)

	missing := model.NewIDKey(model.KindConference, 999, nil)
	assert.True(t, errors.Is(s.Get(ctx, missing, &got), ErrNoSuchEntity))
}

func TestMemoryGetMulti(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := putConference(t, s, nil, "A", "Paris", 1)
	b := putConference(t, s, nil, "B", "Rome", 1)
	missing := model.NewIDKey(model.KindConference, 999, nil)

	var got []model.Conference
	require.NoError(t, s.GetMulti(ctx, []model.Key{b.Key, missing, a.Key}, &got))
	assert.Equal(t, []string{"B", "A"}, names(got))
}

func TestMemoryQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	putConference(t, s, nil, "Zeta", "Paris", 30, "Go", "Cloud")
	putConference(t, s, nil, "Alpha", "Paris", 30, "Web")
	putConference(t, s, nil, "Mid", "Paris", 25, "Go")
	putConference(t, s, nil, "Small", "Paris", 20, "Go")
	putConference(t, s, nil, "Roma", "Rome", 100, "Go")

	tests := []struct {
		description string
		query       Query
		expected    []string
	}{
		{
			description: "equality plus inequality sorted by inequality then name",
			query: Query{Kind: model.KindConference}.
				Filter("city", query.OpEQ, "Paris").
				Filter("maxAttendees", query.OpGT, 20).
				Order("maxAttendees").Order("name"),
			expected: []string{"Mid", "Alpha", "Zeta"},
		},
		{
			description: "array property matches any element",
			query: Query{Kind: model.KindConference}.
				Filter("topics", query.OpEQ, "Go").Order("name"),
			expected: []string{"Mid", "Roma", "Small", "Zeta"},
		},
		{
			description: "not equal on array excludes any element",
			query: Query{Kind: model.KindConference}.
				Filter("topics", query.OpNE, "Go").Order("name"),
			expected: []string{"Alpha"},
		},
		{
			description: "missing property never matches",
			query: Query{Kind: model.KindConference}.
				Filter("startDate", query.OpNE, "2024-01-01"),
			expected: []string{},
		},
		{
			description: "limit",
			query:       Query{Kind: model.KindConference, Limit: 2}.Order("name"),
			expected:    []string{"Alpha", "Mid"},
		},
	}

	for _, test := range tests {
		var got []model.Conference
		require.NoErrorf(t, s.Query(ctx, test.query, &got), test.description)
		assert.Equalf(t, test.expected, names(got), test.description)
	}
}

func TestMemoryAncestorQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u1, u2 := model.ProfileKey("u1"), model.ProfileKey("u2")
	putConference(t, s, &u1, "Mine", "Paris", 1)
	putConference(t, s, &u2, "Theirs", "Paris", 1)

	var got []model.Conference
	require.NoError(t, s.Query(ctx, Query{Kind: model.KindConference, Ancestor: &u1}, &got))
	assert.Equal(t, []string{"Mine"}, names(got))
}

func TestMemoryTransactionContention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	conf := putConference(t, s, nil, "A", "Paris", 3)

	err := s.RunInTransaction(ctx, func(ctx context.Context, tx Tx) error {
		var c model.Conference
		if err := tx.Get(ctx, conf.Key, &c); err != nil {
			return err
		}
		c.SeatsAvailable--

		outside := conf
		outside.SeatsAvailable = 0
		require.NoError(t, s.Put(ctx, conf.Key, &outside))

		return tx.Put(ctx, conf.Key, &c)
	})
	assert.True(t, errors.Is(err, ErrContention))

	var got model.Conference
	require.NoError(t, s.Get(ctx, conf.Key, &got))
	assert.Equal(t, 0, got.SeatsAvailable)
}

func TestMemoryTransactionAbsentKeyContention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := model.ProfileKey("u1")

	err := s.RunInTransaction(ctx, func(ctx context.Context, tx Tx) error {
		var p model.Profile
		require.True(t, errors.Is(tx.Get(ctx, key, &p), ErrNoSuchEntity))

		require.NoError(t, s.Put(ctx, key, model.NewProfile(model.Identity{UserID: "u1", Nickname: "first"})))

		return tx.Put(ctx, key, model.NewProfile(model.Identity{UserID: "u1", Nickname: "second"}))
	})
	assert.True(t, errors.Is(err, ErrContention))

	var p model.Profile
	require.NoError(t, s.Get(ctx, key, &p))
	assert.Equal(t, "first", p.DisplayName)
}

func TestMemoryTransactionCommitAndDiscard(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	conf := putConference(t, s, nil, "A", "Paris", 3)

	require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx Tx) error {
		var c model.Conference
		if err := tx.Get(ctx, conf.Key, &c); err != nil {
			return err
		}
		c.SeatsAvailable = 2
		if err := tx.Put(ctx, conf.Key, &c); err != nil {
			return err
		}
		var again model.Conference
		if err := tx.Get(ctx, conf.Key, &again); err != nil {
			return err
		}
		assert.Equal(t, 2, again.SeatsAvailable, "reads see own writes")
		return nil
	}))

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(ctx context.Context, tx Tx) error {
		c := conf
		c.SeatsAvailable = 0
		if err := tx.Put(ctx, conf.Key, &c); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)

	var got model.Conference
	require.NoError(t, s.Get(ctx, conf.Key, &got))
	assert.Equal(t, 2, got.SeatsAvailable)
}

func TestMemoryConcurrentCommitsKeepReadsConsistent(t *testing.T) {
	const increments = 50
	ctx := context.Background()
	s := NewMemoryStore()
	conf := putConference(t, s, nil, "A", "Paris", 0)

	// Every committed version v holds SeatsAvailable == MaxAttendees == v-1.
	consistent := func(c model.Conference, version uint64) error {
		if c.SeatsAvailable != c.MaxAttendees || uint64(c.SeatsAvailable)+1 != version {
			return fmt.Errorf("torn read: seats %d, max %d at version %d", c.SeatsAvailable, c.MaxAttendees, version)
		}
		return nil
	}

	var done atomic.Bool
	var readers errgroup.Group
	for i := 0; i < 4; i++ {
		readers.Go(func() error {
			for !done.Load() {
				var c model.Conference
				version, err := s.get(ctx, conf.Key, &c)
				if err != nil {
					return err
				}
				if err := consistent(c, version); err != nil {
					return err
				}

				var found []model.Conference
				versions, err := s.query(ctx, Query{Kind: model.KindConference}, &found)
				if err != nil {
					return err
				}
				if len(found) != 1 {
					return fmt.Errorf("query found %d conferences", len(found))
				}
				if err := consistent(found[0], versions[conf.Key.Encode()]); err != nil {
					return err
				}
			}
			return nil
		})
	}

	var writers errgroup.Group
	for i := 0; i < increments; i++ {
		writers.Go(func() error {
			for {
				err := s.RunInTransaction(ctx, func(ctx context.Context, tx Tx) error {
					var c model.Conference
					if err := tx.Get(ctx, conf.Key, &c); err != nil {
						return err
					}
					c.SeatsAvailable++
					c.MaxAttendees++
					return tx.Put(ctx, conf.Key, &c)
				})
				if !errors.Is(err, ErrContention) {
					return err
				}
			}
		})
	}
	writeErr := writers.Wait()
	done.Store(true)
	require.NoError(t, writeErr)
	require.NoError(t, readers.Wait())

	var got model.Conference
	require.NoError(t, s.Get(ctx, conf.Key, &got))
	assert.Equal(t, increments, got.SeatsAvailable, "no increment is lost")
	assert.Equal(t, increments, got.MaxAttendees)
}

func TestMemoryTransactionQuerySeesPendingWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	paris := putConference(t, s, nil, "Paris Go", "Paris", 10)
	putConference(t, s, nil, "Rome Go", "Rome", 10)

	require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context, tx Tx) error {
		moved := paris
		moved.City = "Rome"
		if err := tx.Put(ctx, paris.Key, &moved); err != nil {
			return err
		}
		key, err := s.AllocateID(ctx, model.KindConference, nil)
		if err != nil {
			return err
		}
		fresh := model.Conference{Key: key, Name: "Another Rome", City: "Rome"}
		if err := tx.Put(ctx, key, &fresh); err != nil {
			return err
		}

		var inRome []model.Conference
		q := Query{Kind: model.KindConference}.Filter("city", query.OpEQ, "Rome").Order("name")
		if err := tx.Query(ctx, q, &inRome); err != nil {
			return err
		}
		assert.Equal(t, []string{"Another Rome", "Paris Go", "Rome Go"}, names(inRome))

		var inParis []model.Conference
		if err := tx.Query(ctx, Query{Kind: model.KindConference}.Filter("city", query.OpEQ, "Paris"), &inParis); err != nil {
			return err
		}
		assert.Empty(t, inParis)
		return nil
	}))

	var committed []model.Conference
	require.NoError(t, s.Query(ctx, Query{Kind: model.KindConference}.Filter("city", query.OpEQ, "Rome"), &committed))
	assert.Len(t, committed, 3)
}
