package catalog

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"conference-webapp/config"
	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/model"
)

// ProfileOrNew reads the caller's profile through r. When none exists yet it
// returns a fresh, unsaved profile and created=true.
func ProfileOrNew(ctx context.Context, r database.Reader, who model.Identity) (profile *model.Profile, created bool, err error) {
	if who.UserID == "" {
		return nil, false, errors.Unauthenticated("authorization required")
	}
	var p model.Profile
	err = r.Get(ctx, model.ProfileKey(who.UserID), &p)
	if stderrors.Is(err, database.ErrNoSuchEntity) {
		return model.NewProfile(who), true, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.KindInternal, err, "cannot read profile")
	}
	return &p, false, nil
}

// Contended converts a lost transaction into a Contention error.
func Contended(err error) error {
	if stderrors.Is(err, database.ErrContention) {
		return errors.Wrap(errors.KindContention, err, "concurrent update, retry the request")
	}
	return err
}

type Profiles struct {
	store  database.Store
	logger *slog.Logger
}

func NewProfiles(store database.Store, logger *slog.Logger) *Profiles {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	return &Profiles{store: store, logger: logger}
}

// Get returns the caller's profile, creating it on first access.
func (p *Profiles) Get(ctx context.Context, who model.Identity) (*model.Profile, error) {
	prof, created, err := ProfileOrNew(ctx, p.store, who)
	if err != nil || !created {
		return prof, err
	}
	// Create inside a transaction so a concurrent registration that creates
	// the same profile is never overwritten.
	err = p.store.RunInTransaction(ctx, func(ctx context.Context, tx database.Tx) error {
		var isNew bool
		prof, isNew, err = ProfileOrNew(ctx, tx, who)
		if err != nil || !isNew {
			return err
		}
		return tx.Put(ctx, prof.Key, prof)
	})
	if err != nil {
		return nil, Contended(err)
	}
	p.logger.Info("created profile", "user", who.UserID)
	return prof, nil
}

// Save applies the non-empty fields of form to the caller's profile.
func (p *Profiles) Save(ctx context.Context, who model.Identity, form model.ProfileForm) (*model.Profile, error) {
	var size model.TeeShirtSize
	if form.TeeShirtSize != nil && *form.TeeShirtSize != "" {
		parsed, err := model.ParseTeeShirtSize(strings.ToUpper(*form.TeeShirtSize))
		if err != nil {
			return nil, errors.BadRequest("%v", err)
		}
		size = parsed
	}

	var prof *model.Profile
	err := p.store.RunInTransaction(ctx, func(ctx context.Context, tx database.Tx) error {
		var err error
		prof, _, err = ProfileOrNew(ctx, tx, who)
		if err != nil {
			return err
		}
		if form.DisplayName != nil && strings.TrimSpace(*form.DisplayName) != "" {
			prof.DisplayName = strings.TrimSpace(*form.DisplayName)
		}
		if size != "" {
			prof.TeeShirtSize = size
		}
		return tx.Put(ctx, prof.Key, prof)
	})
	if err != nil {
		return nil, Contended(err)
	}
	return prof, nil
}

// displayNames batch-reads the profiles of userIDs.
func displayNames(ctx context.Context, r database.Reader, userIDs []string) (map[string]string, error) {
	seen := make(map[string]bool, len(userIDs))
	var keys []model.Key
	for _, id := range userIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, model.ProfileKey(id))
	}
	var profiles []model.Profile
	if err := r.GetMulti(ctx, keys, &profiles); err != nil {
		return nil, errors.Wrap(errors.KindInternal, err, "cannot read organizer profiles")
	}
	names := make(map[string]string, len(profiles))
	for _, prof := range profiles {
		names[prof.UserID()] = prof.DisplayName
	}
	return names, nil
}
