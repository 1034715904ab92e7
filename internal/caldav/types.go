package caldav

import "time"

// Calendar is one calendar collection. URL is absolute and always ends in
// a slash; it is the collection's identity.
type Calendar struct {
	URL         string `json:"url"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// CalendarEvent is a decoded calendar object. Start and End carry the
// document's compact UTC tokens (20060102T150405Z) verbatim. Attendees are
// the participant email addresses.
type CalendarEvent struct {
	URL         string   `json:"url"`
	ETag        string   `json:"etag,omitempty"`
	UID         string   `json:"uid"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees,omitempty"`
}

// Participant is one invitee on an event to be created.
type Participant struct {
	Email string
	Name  string
}

// NewEvent describes an event to create.
type NewEvent struct {
	Title        string
	Start        time.Time
	End          time.Time
	Description  string
	Location     string
	Participants []Participant
}
