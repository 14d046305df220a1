package tasks

import (
	"context"
	"sync"
	"testing"

	"conference-webapp/cache"
	"conference-webapp/database"
	"conference-webapp/metrics"
	"conference-webapp/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	c := cache.New(store, nil)
	mailer := &recordingMailer{}
	reg := prometheus.NewRegistry()
	d := NewDispatcher(c, mailer, nil, metrics.New(reg))
	d.Start(ctx, 0)

	key, err := store.AllocateID(ctx, model.KindConference, nil)
	require.NoError(t, err)
	conf := model.Conference{Key: key, Name: "GopherCon", MaxAttendees: 10, SeatsAvailable: 2}
	require.NoError(t, store.Put(ctx, key, &conf))
	for _, name := range []string{"Concurrency", "Errors"} {
		sk, err := store.AllocateID(ctx, model.KindSession, &key)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, sk, &model.Session{Key: sk, Name: name, Speaker: "Rob", StartTime: -1}))
	}

	organizer := model.Identity{UserID: "u1", Email: "org@example.com"}
	d.ConferenceCreated(organizer, conf.View(""))
	d.ConferenceCreated(model.Identity{UserID: "u2"}, conf.View(""))
	d.SessionCreated(key, "Rob")
	d.SeatsChanged(key)
	d.Stop()

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "org@example.com", mailer.sent[0].to)
	assert.Equal(t, "You created a new Conference!", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "GopherCon")

	assert.Equal(t, "Rob is speaking at Concurrency, and Errors.", c.FeaturedSpeaker())
	assert.Equal(t, "Last chance to attend! The following conferences are nearly sold out: GopherCon", c.Announcement())

	series, err := testutil.GatherAndCount(reg, "conference_tasks_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series)

	d.RefreshAnnouncement()
	d.Stop()
}
