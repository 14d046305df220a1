package catalog

import (
	"context"
	"testing"

	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionNames(views []model.SessionView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Name
	}
	return out
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	events := &recordedEvents{}
	confs := NewConferences(store, nil, nil)
	sessions := NewSessions(store, events, nil)

	gophercon, err := confs.Create(ctx, alice, model.ConferenceForm{Name: strp("GopherCon")})
	require.NoError(t, err)
	other, err := confs.Create(ctx, bob, model.ConferenceForm{Name: strp("RustConf")})
	require.NoError(t, err)

	forms := []model.SessionForm{
		{Name: "Morning Workshop", Speaker: "Rob", TypeOfSession: "WORKSHOP", StartTime: "09:00"},
		{Name: "Keynote", Speaker: "Russ", TypeOfSession: "KEYNOTE", StartTime: "10:00"},
		{Name: "Evening Lecture", Speaker: "Rob", TypeOfSession: "LECTURE", StartTime: "19:30"},
		{Name: "Lunch Talk", Speaker: "Ian", TypeOfSession: "LECTURE", StartTime: "12:15"},
		{Name: "Unscheduled", TypeOfSession: "FREEFORM"},
	}
	for _, f := range forms {
		_, err := sessions.Create(ctx, alice, gophercon.WebsafeKey, f)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Rob", "Russ", "Rob", "Ian"}, events.speakers)

	_, err = sessions.Create(ctx, alice, other.WebsafeKey, model.SessionForm{Name: "Intruder"})
	assert.True(t, errors.Is(err, errors.KindForbidden))

	all, err := sessions.ForConference(ctx, gophercon.WebsafeKey, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	lectures, err := sessions.ForConference(ctx, gophercon.WebsafeKey, "LECTURE")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Evening Lecture", "Lunch Talk"}, sessionNames(lectures))

	_, err = sessions.ForConference(ctx, gophercon.WebsafeKey, "PARTY")
	assert.True(t, errors.Is(err, errors.KindBadRequest))

	keynotes, err := sessions.ByType(ctx, "KEYNOTE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Keynote"}, sessionNames(keynotes))

	rob, err := sessions.BySpeaker(ctx, "Rob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Morning Workshop", "Evening Lecture"}, sessionNames(rob))

	early, err := sessions.EarlyNonWorkshop(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keynote", "Lunch Talk"}, sessionNames(early))
}

func TestCreateSessionRejects(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	sessions := NewSessions(store, nil, nil)
	confs := NewConferences(store, nil, nil)
	conf, err := confs.Create(ctx, alice, model.ConferenceForm{Name: strp("GopherCon")})
	require.NoError(t, err)

	confKey, err := model.DecodeKey(conf.WebsafeKey)
	require.NoError(t, err)
	sessionKey := model.NewIDKey(model.KindSession, 1, &confKey)
	missing := model.NewIDKey(model.KindConference, 999, nil)

	tests := []struct {
		description  string
		who          model.Identity
		websafeKey   string
		form         model.SessionForm
		expectedKind errors.Kind
	}{
		{description: "anonymous", websafeKey: conf.WebsafeKey, form: model.SessionForm{Name: "A"}, expectedKind: errors.KindUnauthenticated},
		{description: "session key", who: alice, websafeKey: sessionKey.Encode(), form: model.SessionForm{Name: "A"}, expectedKind: errors.KindBadRequest},
		{description: "missing conference", who: alice, websafeKey: missing.Encode(), form: model.SessionForm{Name: "A"}, expectedKind: errors.KindNotFound},
		{description: "missing name", who: alice, websafeKey: conf.WebsafeKey, expectedKind: errors.KindBadRequest},
		{description: "bad start time", who: alice, websafeKey: conf.WebsafeKey, form: model.SessionForm{Name: "A", StartTime: "noon"}, expectedKind: errors.KindBadRequest},
	}
	for _, test := range tests {
		_, err := sessions.Create(ctx, test.who, test.websafeKey, test.form)
		assert.Equalf(t, test.expectedKind, errors.KindOf(err), test.description)
	}
}
