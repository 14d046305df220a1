package registration

import (
	"context"
	stderrors "errors"

	"conference-webapp/catalog"
	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/model"
)

// AddToWishlist appends a session to the caller's wishlist. The membership
// check and the append commit together.
func (c *Coordinator) AddToWishlist(ctx context.Context, who model.Identity, websafeSessionKey string) (model.SessionView, error) {
	view, err := c.addToWishlist(ctx, who, websafeSessionKey)
	c.metrics.WishlistAddition(err)
	return view, err
}

func (c *Coordinator) addToWishlist(ctx context.Context, who model.Identity, websafeSessionKey string) (model.SessionView, error) {
	key, err := model.DecodeKey(websafeSessionKey)
	if err != nil || key.Kind != model.KindSession {
		return model.SessionView{}, errors.BadRequest("websafeKey provided is not a session key")
	}
	wssk := key.Encode()

	var sesh model.Session
	err = c.store.RunInTransaction(ctx, func(ctx context.Context, tx database.Tx) error {
		prof, _, err := catalog.ProfileOrNew(ctx, tx, who)
		if err != nil {
			return err
		}
		err = tx.Get(ctx, key, &sesh)
		if stderrors.Is(err, database.ErrNoSuchEntity) {
			return errors.NotFound("session key does not exist: %s", wssk)
		}
		if err != nil {
			return errors.Wrap(errors.KindInternal, err, "cannot read session")
		}
		if !prof.SessionKeysWishlist.Add(wssk) {
			return errors.Conflict("session key already in wishlist")
		}
		return tx.Put(ctx, prof.Key, prof)
	})
	if err != nil {
		return model.SessionView{}, catalog.Contended(err)
	}
	c.logger.Info("added session to wishlist", "user", who.UserID, "session", wssk)
	return sesh.View(), nil
}

// ListWishlist returns the wishlist's sessions in wishlist order. Sessions
// that no longer exist are left out.
func (c *Coordinator) ListWishlist(ctx context.Context, who model.Identity) ([]model.SessionView, error) {
	prof, _, err := catalog.ProfileOrNew(ctx, c.store, who)
	if err != nil {
		return nil, err
	}
	keys := make([]model.Key, 0, prof.SessionKeysWishlist.Len())
	for _, wssk := range prof.SessionKeysWishlist.Keys() {
		key, err := model.DecodeKey(wssk)
		if err != nil || key.Kind != model.KindSession {
			continue
		}
		keys = append(keys, key)
	}

	var sessions []model.Session
	if err := c.store.GetMulti(ctx, keys, &sessions); err != nil {
		return nil, errors.Wrap(errors.KindInternal, err, "cannot read wishlist sessions")
	}
	views := make([]model.SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, sessions[i].View())
	}
	return views, nil
}
