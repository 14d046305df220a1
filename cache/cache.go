// Package cache keeps the announcement and featured-speaker strings derived
// from the store.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conference-webapp/config"
	"conference-webapp/database"
	"conference-webapp/model"
	"conference-webapp/query"

	gocache "github.com/patrickmn/go-cache"
)

const (
	AnnouncementsKey   = "RECENT_ANNOUNCEMENTS"
	FeaturedSpeakerKey = "FEATURED_SPEAKERS"

	AnnouncementTemplate = "Last chance to attend! The following conferences are nearly sold out: %s"

	// NearlySoldOut is the highest seat count announced.
	NearlySoldOut = 5

	DefaultCleanupInterval = 30 * time.Minute
)

type Cache struct {
	store  database.Reader
	cache  *gocache.Cache
	logger *slog.Logger
}

func New(store database.Reader, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	return &Cache{
		store:  store,
		cache:  gocache.New(gocache.NoExpiration, DefaultCleanupInterval),
		logger: logger,
	}
}

// RefreshAnnouncement rebuilds the announcement from conferences with
// between 1 and NearlySoldOut seats left, and clears it when there are none.
func (c *Cache) RefreshAnnouncement(ctx context.Context) (string, error) {
	q := database.Query{Kind: model.KindConference}.
		Filter("seatsAvailable", query.OpGT, 0).
		Filter("seatsAvailable", query.OpLTEQ, NearlySoldOut).
		Order("seatsAvailable").
		Order("name")
	var confs []model.Conference
	if err := c.store.Query(ctx, q, &confs); err != nil {
		return "", fmt.Errorf("query nearly sold out conferences: %w", err)
	}

	if len(confs) == 0 {
		c.cache.Delete(AnnouncementsKey)
		return "", nil
	}
	names := make([]string, 0, len(confs))
	for _, conf := range confs {
		names = append(names, conf.Name)
	}
	announcement := fmt.Sprintf(AnnouncementTemplate, strings.Join(names, ", "))
	c.cache.Set(AnnouncementsKey, announcement, gocache.NoExpiration)
	c.logger.Debug("announcement refreshed", "conferences", len(confs))
	return announcement, nil
}

func (c *Cache) Announcement() string {
	return c.getString(AnnouncementsKey)
}

// CacheFeaturedSpeaker features speaker when they hold two or more sessions
// in the conference. An existing featured speaker is kept.
func (c *Cache) CacheFeaturedSpeaker(ctx context.Context, conferenceKey model.Key, speaker string) (string, error) {
	q := database.Query{Kind: model.KindSession, Ancestor: &conferenceKey}.
		Filter("speaker", query.OpEQ, speaker)
	var sessions []model.Session
	if err := c.store.Query(ctx, q, &sessions); err != nil {
		return "", fmt.Errorf("query speaker sessions: %w", err)
	}
	if len(sessions) < 2 {
		return "", nil
	}

	var names strings.Builder
	for i, sesh := range sessions {
		if i < len(sessions)-1 {
			fmt.Fprintf(&names, "%s, ", sesh.Name)
		} else {
			fmt.Fprintf(&names, "and %s.", sesh.Name)
		}
	}
	featured := fmt.Sprintf("%s is speaking at %s", speaker, names.String())
	if err := c.cache.Add(FeaturedSpeakerKey, featured, gocache.NoExpiration); err != nil {
		c.logger.Debug("featured speaker already cached", "speaker", speaker)
	}
	return featured, nil
}

func (c *Cache) FeaturedSpeaker() string {
	return c.getString(FeaturedSpeakerKey)
}

func (c *Cache) getString(key string) string {
	value, found := c.cache.Get(key)
	if !found {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		c.logger.Error("wrong type assertion when getting value", "key", key)
		return ""
	}
	return s
}
