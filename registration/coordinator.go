// Package registration keeps a conference's seat counter and its attendees'
// attendance lists consistent. Every change to either runs in one
// transaction spanning the profile and the conference.
package registration

import (
	"context"
	stderrors "errors"
	"log/slog"

	"conference-webapp/catalog"
	"conference-webapp/config"
	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/metrics"
	"conference-webapp/model"
)

type Coordinator struct {
	store   database.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	// SeatsChanged, when set, is called after a committed seat change.
	SeatsChanged func(conferenceKey model.Key)
}

func NewCoordinator(store database.Store, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	return &Coordinator{store: store, logger: logger, metrics: m}
}

// Register takes one seat for the caller. It fails with Conflict when the
// caller is already registered or no seats remain.
func (c *Coordinator) Register(ctx context.Context, who model.Identity, websafeConferenceKey string) (bool, error) {
	ok, err := c.change(ctx, who, websafeConferenceKey, true)
	c.metrics.Registration("register", ok, err)
	return ok, err
}

// Unregister gives the caller's seat back. It returns false, without error,
// when the caller was not registered.
func (c *Coordinator) Unregister(ctx context.Context, who model.Identity, websafeConferenceKey string) (bool, error) {
	ok, err := c.change(ctx, who, websafeConferenceKey, false)
	c.metrics.Registration("unregister", ok, err)
	return ok, err
}

func (c *Coordinator) change(ctx context.Context, who model.Identity, websafeConferenceKey string, register bool) (bool, error) {
	confKey, err := model.DecodeKey(websafeConferenceKey)
	if err != nil {
		return false, errors.BadRequest("%v", err)
	}
	if confKey.Kind != model.KindConference {
		return false, errors.BadRequest("websafeKey %q is not a %s key", websafeConferenceKey, model.KindConference)
	}
	// Attendance lists hold canonical encodings only.
	wsck := confKey.Encode()

	var changed bool
	err = c.store.RunInTransaction(ctx, func(ctx context.Context, tx database.Tx) error {
		changed = false
		prof, created, err := catalog.ProfileOrNew(ctx, tx, who)
		if err != nil {
			return err
		}

		var conf model.Conference
		err = tx.Get(ctx, confKey, &conf)
		if stderrors.Is(err, database.ErrNoSuchEntity) {
			return errors.NotFound("no conference found with key: %s", wsck)
		}
		if err != nil {
			return errors.Wrap(errors.KindInternal, err, "cannot read conference")
		}

		if register {
			if prof.ConferenceKeysToAttend.Contains(wsck) {
				return errors.Conflict("you have already registered for this conference")
			}
			if conf.SeatsAvailable <= 0 {
				return errors.Conflict("there are no seats available")
			}
			prof.ConferenceKeysToAttend.Add(wsck)
			conf.SeatsAvailable--
			changed = true
		} else if prof.ConferenceKeysToAttend.Remove(wsck) {
			if conf.SeatsAvailable < conf.MaxAttendees {
				conf.SeatsAvailable++
			} else {
				c.logger.Warn("seat counter already at capacity on unregister", "conference", wsck)
			}
			changed = true
		}

		if !changed {
			if created {
				return tx.Put(ctx, prof.Key, prof)
			}
			return nil
		}
		if err := tx.Put(ctx, prof.Key, prof); err != nil {
			return err
		}
		return tx.Put(ctx, conf.Key, &conf)
	})
	if err != nil {
		err = catalog.Contended(err)
		if errors.Is(err, errors.KindContention) {
			c.logger.Warn("registration lost to a concurrent transaction", "user", who.UserID, "conference", wsck)
		}
		return false, err
	}

	if changed {
		c.logger.Info("registration changed", "user", who.UserID, "conference", wsck, "register", register)
		if c.SeatsChanged != nil {
			c.SeatsChanged(confKey)
		}
	}
	return changed, nil
}
