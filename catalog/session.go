package catalog

import (
	"context"
	"log/slog"

	"conference-webapp/config"
	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/model"
	"conference-webapp/query"
)

// EarlyCutoff is 19:00 in minutes after midnight.
const EarlyCutoff = 19 * 60

type Sessions struct {
	store  database.Store
	events Events
	logger *slog.Logger
}

func NewSessions(store database.Store, events Events, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	if events == nil {
		events = noEvents{}
	}
	return &Sessions{store: store, events: events, logger: logger}
}

// Create adds a session to a conference the caller organizes.
func (s *Sessions) Create(ctx context.Context, who model.Identity, websafeConferenceKey string, form model.SessionForm) (model.SessionView, error) {
	if who.UserID == "" {
		return model.SessionView{}, errors.Unauthenticated("must be logged in to create a session")
	}
	confKey, err := decodeKey(websafeConferenceKey, model.KindConference)
	if err != nil {
		return model.SessionView{}, err
	}
	var conf model.Conference
	if err := getConference(ctx, s.store, confKey, &conf); err != nil {
		return model.SessionView{}, err
	}
	if conf.OrganizerUserID != who.UserID {
		return model.SessionView{}, errors.Forbidden("you must be the organizer to create a session")
	}

	key, err := s.store.AllocateID(ctx, model.KindSession, &conf.Key)
	if err != nil {
		return model.SessionView{}, errors.Wrap(errors.KindInternal, err, "cannot allocate session id")
	}
	sesh, err := model.NewSession(key, form)
	if err != nil {
		return model.SessionView{}, errors.BadRequest("%v", err)
	}
	if err := s.store.Put(ctx, sesh.Key, sesh); err != nil {
		return model.SessionView{}, errors.Wrap(errors.KindInternal, err, "cannot store session")
	}

	s.logger.Info("created session", "conference", conf.Key.Encode(), "session", sesh.Key.Encode())
	if sesh.Speaker != "" {
		s.events.SessionCreated(conf.Key, sesh.Speaker)
	}
	return sesh.View(), nil
}

// ForConference lists a conference's sessions, optionally of one type.
func (s *Sessions) ForConference(ctx context.Context, websafeConferenceKey string, sessionType string) ([]model.SessionView, error) {
	confKey, err := decodeKey(websafeConferenceKey, model.KindConference)
	if err != nil {
		return nil, err
	}
	q := database.Query{Kind: model.KindSession, Ancestor: &confKey}
	if sessionType != "" {
		t, err := model.ParseSessionType(sessionType)
		if err != nil {
			return nil, errors.BadRequest("%v", err)
		}
		q = q.Filter("typeOfSession", query.OpEQ, string(t))
	}
	return s.list(ctx, q)
}

func (s *Sessions) ByType(ctx context.Context, sessionType string) ([]model.SessionView, error) {
	t, err := model.ParseSessionType(sessionType)
	if err != nil {
		return nil, errors.BadRequest("%v", err)
	}
	return s.list(ctx, database.Query{Kind: model.KindSession}.Filter("typeOfSession", query.OpEQ, string(t)))
}

func (s *Sessions) BySpeaker(ctx context.Context, speaker string) ([]model.SessionView, error) {
	return s.list(ctx, database.Query{Kind: model.KindSession}.Filter("speaker", query.OpEQ, speaker))
}

// EarlyNonWorkshop lists scheduled sessions starting before 19:00 that are
// not workshops. Only startTime is filtered in the query, since it already
// carries the inequality; the type is filtered afterwards.
func (s *Sessions) EarlyNonWorkshop(ctx context.Context) ([]model.SessionView, error) {
	q := database.Query{Kind: model.KindSession}.
		Filter("startTime", query.OpGTEQ, 0).
		Filter("startTime", query.OpLT, EarlyCutoff).
		Order("startTime").
		Order("name")
	var sessions []model.Session
	if err := s.store.Query(ctx, q, &sessions); err != nil {
		return nil, errors.Wrap(errors.KindInternal, err, "cannot query sessions")
	}
	views := make([]model.SessionView, 0, len(sessions))
	for i := range sessions {
		if sessions[i].TypeOfSession == model.SessionWorkshop {
			continue
		}
		views = append(views, sessions[i].View())
	}
	return views, nil
}

func (s *Sessions) list(ctx context.Context, q database.Query) ([]model.SessionView, error) {
	var sessions []model.Session
	if err := s.store.Query(ctx, q, &sessions); err != nil {
		return nil, errors.Wrap(errors.KindInternal, err, "cannot query sessions")
	}
	views := make([]model.SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, sessions[i].View())
	}
	return views, nil
}
