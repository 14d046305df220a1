package catalog

import (
	"context"
	stderrors "errors"
	"log/slog"

	"conference-webapp/config"
	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/model"
	"conference-webapp/query"
)

type Conferences struct {
	store    database.Store
	profiles *Profiles
	events   Events
	logger   *slog.Logger
}

func NewConferences(store database.Store, events Events, logger *slog.Logger) *Conferences {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	if events == nil {
		events = noEvents{}
	}
	return &Conferences{
		store:    store,
		profiles: NewProfiles(store, logger),
		events:   events,
		logger:   logger,
	}
}

// Create allocates a conference under the organizer's profile key.
func (c *Conferences) Create(ctx context.Context, who model.Identity, form model.ConferenceForm) (model.ConferenceView, error) {
	prof, err := c.profiles.Get(ctx, who)
	if err != nil {
		return model.ConferenceView{}, err
	}

	key, err := c.store.AllocateID(ctx, model.KindConference, &prof.Key)
	if err != nil {
		return model.ConferenceView{}, errors.Wrap(errors.KindInternal, err, "cannot allocate conference id")
	}
	conf, err := model.NewConference(key, who.UserID, form)
	if err != nil {
		return model.ConferenceView{}, errors.BadRequest("%v", err)
	}
	if err := c.store.Put(ctx, conf.Key, conf); err != nil {
		return model.ConferenceView{}, errors.Wrap(errors.KindInternal, err, "cannot store conference")
	}

	view := conf.View(prof.DisplayName)
	c.logger.Info("created conference", "user", who.UserID, "conference", view.WebsafeKey)
	c.events.ConferenceCreated(who, view)
	return view, nil
}

// Update applies the fields present in form. Only the organizer may update.
func (c *Conferences) Update(ctx context.Context, who model.Identity, websafeKey string, form model.ConferenceForm) (model.ConferenceView, error) {
	if who.UserID == "" {
		return model.ConferenceView{}, errors.Unauthenticated("authorization required")
	}
	key, err := decodeKey(websafeKey, model.KindConference)
	if err != nil {
		return model.ConferenceView{}, err
	}

	var conf model.Conference
	err = c.store.RunInTransaction(ctx, func(ctx context.Context, tx database.Tx) error {
		if err := getConference(ctx, tx, key, &conf); err != nil {
			return err
		}
		if conf.OrganizerUserID != who.UserID {
			return errors.Forbidden("only the owner can update the conference")
		}
		if err := conf.Apply(form); err != nil {
			return errors.BadRequest("%v", err)
		}
		return tx.Put(ctx, conf.Key, &conf)
	})
	if err != nil {
		return model.ConferenceView{}, Contended(err)
	}
	return c.view(ctx, &conf)
}

func (c *Conferences) Get(ctx context.Context, websafeKey string) (model.ConferenceView, error) {
	key, err := decodeKey(websafeKey, model.KindConference)
	if err != nil {
		return model.ConferenceView{}, err
	}
	var conf model.Conference
	if err := getConference(ctx, c.store, key, &conf); err != nil {
		return model.ConferenceView{}, err
	}
	return c.view(ctx, &conf)
}

// Created lists the conferences organized by the caller.
func (c *Conferences) Created(ctx context.Context, who model.Identity) ([]model.ConferenceView, error) {
	prof, err := c.profiles.Get(ctx, who)
	if err != nil {
		return nil, err
	}
	var confs []model.Conference
	q := database.Query{Kind: model.KindConference, Ancestor: &prof.Key}
	if err := c.store.Query(ctx, q, &confs); err != nil {
		return nil, errors.Wrap(errors.KindInternal, err, "cannot query conferences")
	}
	views := make([]model.ConferenceView, 0, len(confs))
	for i := range confs {
		views = append(views, confs[i].View(prof.DisplayName))
	}
	return views, nil
}

// Query runs the caller's filters through the compiler.
func (c *Conferences) Query(ctx context.Context, filters []query.FilterSpec) ([]model.ConferenceView, error) {
	plan, err := query.Compile(filters)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, database.FromPlan(plan))
}

func (c *Conferences) ByTopic(ctx context.Context, topic string) ([]model.ConferenceView, error) {
	q := database.Query{Kind: model.KindConference}.Filter("topics", query.OpEQ, topic)
	return c.list(ctx, q)
}

// Attending lists the conferences the caller registered for, in
// registration order.
func (c *Conferences) Attending(ctx context.Context, who model.Identity) ([]model.ConferenceView, error) {
	prof, err := c.profiles.Get(ctx, who)
	if err != nil {
		return nil, err
	}
	keys := decodeKeys(prof.ConferenceKeysToAttend.Keys(), model.KindConference)
	var confs []model.Conference
	if err := c.store.GetMulti(ctx, keys, &confs); err != nil {
		return nil, errors.Wrap(errors.KindInternal, err, "cannot read conferences")
	}
	return c.views(ctx, confs)
}

func (c *Conferences) list(ctx context.Context, q database.Query) ([]model.ConferenceView, error) {
	var confs []model.Conference
	if err := c.store.Query(ctx, q, &confs); err != nil {
		return nil, errors.Wrap(errors.KindInternal, err, "cannot query conferences")
	}
	return c.views(ctx, confs)
}

func (c *Conferences) view(ctx context.Context, conf *model.Conference) (model.ConferenceView, error) {
	views, err := c.views(ctx, []model.Conference{*conf})
	if err != nil {
		return model.ConferenceView{}, err
	}
	return views[0], nil
}

// views joins organizer display names with one batch read.
func (c *Conferences) views(ctx context.Context, confs []model.Conference) ([]model.ConferenceView, error) {
	ids := make([]string, 0, len(confs))
	for i := range confs {
		ids = append(ids, confs[i].OrganizerUserID)
	}
	names, err := displayNames(ctx, c.store, ids)
	if err != nil {
		return nil, err
	}
	views := make([]model.ConferenceView, 0, len(confs))
	for i := range confs {
		views = append(views, confs[i].View(names[confs[i].OrganizerUserID]))
	}
	return views, nil
}

func getConference(ctx context.Context, r database.Reader, key model.Key, conf *model.Conference) error {
	err := r.Get(ctx, key, conf)
	if stderrors.Is(err, database.ErrNoSuchEntity) {
		return errors.NotFound("no conference found with key: %s", key.Encode())
	}
	if err != nil {
		return errors.Wrap(errors.KindInternal, err, "cannot read conference")
	}
	return nil
}

// decodeKeys parses stored websafe keys, dropping any that are malformed or
// of another kind.
func decodeKeys(websafe []string, kind string) []model.Key {
	keys := make([]model.Key, 0, len(websafe))
	for _, s := range websafe {
		key, err := model.DecodeKey(s)
		if err != nil || key.Kind != kind {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
