package catalog

import (
	"conference-webapp/errors"
	"conference-webapp/model"
)

// Events receives catalog changes that trigger background work.
type Events interface {
	ConferenceCreated(organizer model.Identity, conf model.ConferenceView)
	SessionCreated(conferenceKey model.Key, speaker string)
}

type noEvents struct{}

func (noEvents) ConferenceCreated(model.Identity, model.ConferenceView) {}
func (noEvents) SessionCreated(model.Key, string)                      {}

// decodeKey parses a websafe key that must name an entity of kind.
func decodeKey(websafe, kind string) (model.Key, error) {
	key, err := model.DecodeKey(websafe)
	if err != nil || key.Kind != kind {
		return model.Key{}, errors.BadRequest("websafeKey %q is not a %s key", websafe, kind)
	}
	return key, nil
}
