package model

import (
	"fmt"
	"strings"
	"time"
)

type SessionType string

const (
	SessionNotSpecified SessionType = "NOT_SPECIFIED"
	SessionWorkshop     SessionType = "WORKSHOP"
	SessionLecture      SessionType = "LECTURE"
	SessionKeynote      SessionType = "KEYNOTE"
	SessionFreeform     SessionType = "FREEFORM"
)

var sessionTypes = []SessionType{
	SessionNotSpecified, SessionWorkshop, SessionLecture, SessionKeynote, SessionFreeform,
}

func SessionTypes() []SessionType {
	return append([]SessionType(nil), sessionTypes...)
}

func ParseSessionType(s string) (SessionType, error) {
	for _, t := range sessionTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("not a valid session type: %q", s)
}

const TimeLayout = "15:04"

type Session struct {
	Key           Key         `json:"websafeKey" bson:"_id"`
	Name          string      `json:"name" bson:"name"`
	Highlights    string      `json:"highlights" bson:"highlights"`
	Speaker       string      `json:"speaker" bson:"speaker"`
	Duration      int         `json:"duration" bson:"duration"`
	TypeOfSession SessionType `json:"typeOfSession" bson:"typeOfSession"`
	Date          time.Time   `json:"date" bson:"date,omitempty"`
	// StartTime is minutes after midnight; -1 when not scheduled.
	StartTime int `json:"startTime" bson:"startTime"`
}

type SessionForm struct {
	Name          string `json:"name"`
	Highlights    string `json:"highlights"`
	Speaker       string `json:"speaker"`
	Duration      int    `json:"duration"`
	TypeOfSession string `json:"typeOfSession"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
}

// NewSession builds a session under its conference key. Empty optional
// fields fall back to an unspecified type and no schedule.
func NewSession(key Key, form SessionForm) (*Session, error) {
	if strings.TrimSpace(form.Name) == "" {
		return nil, fmt.Errorf("session 'name' field required")
	}
	if form.Duration < 0 {
		return nil, fmt.Errorf("duration cannot be negative")
	}
	sesh := &Session{
		Key:           key,
		Name:          strings.TrimSpace(form.Name),
		Highlights:    form.Highlights,
		Speaker:       strings.TrimSpace(form.Speaker),
		Duration:      form.Duration,
		TypeOfSession: SessionNotSpecified,
		StartTime:     -1,
	}
	if form.TypeOfSession != "" {
		t, err := ParseSessionType(form.TypeOfSession)
		if err != nil {
			return nil, err
		}
		sesh.TypeOfSession = t
	}
	if form.Date != "" {
		d, err := parseDate(form.Date)
		if err != nil {
			return nil, err
		}
		sesh.Date = d
	}
	if form.StartTime != "" {
		minutes, err := ParseClock(form.StartTime)
		if err != nil {
			return nil, err
		}
		sesh.StartTime = minutes
	}
	return sesh, nil
}

// ParseClock converts HH:MM into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (s *Session) ConferenceKey() Key {
	if s.Key.Parent == nil {
		return Key{}
	}
	return *s.Key.Parent
}

type SessionView struct {
	WebsafeKey    string `json:"websafeKey"`
	Name          string `json:"name"`
	Highlights    string `json:"highlights"`
	Speaker       string `json:"speaker"`
	Duration      int    `json:"duration"`
	TypeOfSession string `json:"typeOfSession"`
	Date          string `json:"date,omitempty"`
	StartTime     string `json:"startTime,omitempty"`
}

func (s *Session) View() SessionView {
	v := SessionView{
		WebsafeKey:    s.Key.Encode(),
		Name:          s.Name,
		Highlights:    s.Highlights,
		Speaker:       s.Speaker,
		Duration:      s.Duration,
		TypeOfSession: string(s.TypeOfSession),
		Date:          formatDate(s.Date),
	}
	if s.StartTime >= 0 {
		v.StartTime = fmt.Sprintf("%02d:%02d", s.StartTime/60, s.StartTime%60)
	}
	return v
}
