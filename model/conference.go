package model

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Defaults applied to conference fields omitted at creation.
var (
	DefaultCity         = "Default City"
	DefaultTopics       = []string{"Default", "Topic"}
	DefaultMaxAttendees = 0
)

type Conference struct {
	Key             Key       `json:"websafeKey" bson:"_id"`
	Name            string    `json:"name" bson:"name"`
	Description     string    `json:"description" bson:"description"`
	OrganizerUserID string    `json:"organizerUserId" bson:"organizerUserId"`
	Topics          []string  `json:"topics" bson:"topics"`
	City            string    `json:"city" bson:"city"`
	StartDate       time.Time `json:"startDate" bson:"startDate,omitempty"`
	EndDate         time.Time `json:"endDate" bson:"endDate,omitempty"`
	Month           int       `json:"month" bson:"month"`
	MaxAttendees    int       `json:"maxAttendees" bson:"maxAttendees"`
	SeatsAvailable  int       `json:"seatsAvailable" bson:"seatsAvailable"`
}

// ConferenceForm carries caller-supplied conference fields. Nil fields are
// absent: defaults apply on creation and stored values survive an update.
type ConferenceForm struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Topics       []string `json:"topics"`
	City         *string  `json:"city"`
	StartDate    *string  `json:"startDate"`
	EndDate      *string  `json:"endDate"`
	MaxAttendees *int     `json:"maxAttendees"`
}

// NewConference builds a fully populated conference owned by organizerID.
// Seats available always start equal to the capacity.
func NewConference(key Key, organizerID string, form ConferenceForm) (*Conference, error) {
	if form.Name == nil || strings.TrimSpace(*form.Name) == "" {
		return nil, fmt.Errorf("conference 'name' field required")
	}
	conf := &Conference{
		Key:             key,
		Name:            strings.TrimSpace(*form.Name),
		OrganizerUserID: organizerID,
		City:            DefaultCity,
		Topics:          append([]string(nil), DefaultTopics...),
		MaxAttendees:    DefaultMaxAttendees,
	}
	if form.Description != nil {
		conf.Description = *form.Description
	}
	if form.City != nil && *form.City != "" {
		conf.City = *form.City
	}
	if len(form.Topics) > 0 {
		conf.Topics = append([]string(nil), form.Topics...)
	}
	if form.MaxAttendees != nil {
		if *form.MaxAttendees < 0 {
			return nil, fmt.Errorf("maxAttendees cannot be negative")
		}
		conf.MaxAttendees = *form.MaxAttendees
	}
	if err := conf.applyDates(form); err != nil {
		return nil, err
	}
	conf.SeatsAvailable = conf.MaxAttendees
	return conf, nil
}

// Apply overwrites the fields present in form. Capacity changes shift the
// remaining seats by the same amount so registered attendees keep their seats.
func (c *Conference) Apply(form ConferenceForm) error {
	if form.Name != nil {
		name := strings.TrimSpace(*form.Name)
		if name == "" {
			return fmt.Errorf("conference name cannot be empty")
		}
		c.Name = name
	}
	if form.Description != nil {
		c.Description = *form.Description
	}
	if form.City != nil {
		c.City = *form.City
	}
	if len(form.Topics) > 0 {
		c.Topics = append([]string(nil), form.Topics...)
	}
	if form.MaxAttendees != nil {
		registered := c.MaxAttendees - c.SeatsAvailable
		if *form.MaxAttendees < registered {
			return fmt.Errorf("cannot assign %v as max attendees, %v seats already taken",
				*form.MaxAttendees, registered)
		}
		c.MaxAttendees = *form.MaxAttendees
		c.SeatsAvailable = c.MaxAttendees - registered
	}
	return c.applyDates(form)
}

func (c *Conference) applyDates(form ConferenceForm) error {
	if form.StartDate != nil && *form.StartDate != "" {
		start, err := parseDate(*form.StartDate)
		if err != nil {
			return err
		}
		c.StartDate = start
	}
	if form.EndDate != nil && *form.EndDate != "" {
		end, err := parseDate(*form.EndDate)
		if err != nil {
			return err
		}
		c.EndDate = end
	}
	if c.StartDate.IsZero() {
		c.Month = 0
	} else {
		c.Month = int(c.StartDate.Month())
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

type ConferenceView struct {
	WebsafeKey           string   `json:"websafeKey"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	OrganizerUserID      string   `json:"organizerUserId"`
	OrganizerDisplayName string   `json:"organizerDisplayName,omitempty"`
	Topics               []string `json:"topics"`
	City                 string   `json:"city"`
	StartDate            string   `json:"startDate,omitempty"`
	EndDate              string   `json:"endDate,omitempty"`
	Month                int      `json:"month"`
	MaxAttendees         int      `json:"maxAttendees"`
	SeatsAvailable       int      `json:"seatsAvailable"`
}

func (c *Conference) View(organizerDisplayName string) ConferenceView {
	return ConferenceView{
		WebsafeKey:           c.Key.Encode(),
		Name:                 c.Name,
		Description:          c.Description,
		OrganizerUserID:      c.OrganizerUserID,
		OrganizerDisplayName: organizerDisplayName,
		Topics:               c.Topics,
		City:                 c.City,
		StartDate:            formatDate(c.StartDate),
		EndDate:              formatDate(c.EndDate),
		Month:                c.Month,
		MaxAttendees:         c.MaxAttendees,
		SeatsAvailable:       c.SeatsAvailable,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
