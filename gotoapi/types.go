package gotoapi

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is an identifier that the API sometimes encodes as a JSON number and
// sometimes as a JSON string.
type ID string

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Profile is a personal meeting room alias that maps to a meeting.
type Profile struct {
	MeetingID ID     `json:"meetingId"`
	AvatarURL string `json:"avatarUrl"`
	Title     string `json:"title"`
	Location  string `json:"location"`
	UserKey   ID     `json:"userKey"`
}

// Organizer identifies the owner of a meeting.
type Organizer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UserKey   ID     `json:"userKey"`
}

// PhoneNumber is one dial-in number offered for a meeting.
type PhoneNumber struct {
	Country  string `json:"country"`
	Number   string `json:"number"`
	TollFree bool   `json:"tollFree"`
}

// Audio describes how attendees can join a meeting's audio.
type Audio struct {
	AudioType    string        `json:"audioType"`
	PhoneNumbers []PhoneNumber `json:"phoneNumbers"`
	// Only the number of dial-out entries matters here.
	DialOutInfo []json.RawMessage `json:"dialOutInfo"`
}

// Meeting is the public description of a scheduled meeting.
type Meeting struct {
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Organizer   Organizer `json:"organizer"`
	Audio       *Audio    `json:"audio"`
	ProfileID   ID        `json:"profileId"`
}

// WebinarTime is a single session of a webinar. Times are RFC 3339 strings
// and are parsed by the caller.
type WebinarTime struct {
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	RegistrationURL string `json:"registrationUrl"`
}

// Presenter is a webinar panelist.
type Presenter struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// Branding is the optional branding block of a webinar.
type Branding struct {
	LogoImageURL      string      `json:"logoImageUrl"`
	WebinarPresenters []Presenter `json:"webinarPresenters"`
}

// Webinar is the public description of a webinar.
type Webinar struct {
	Subject         string        `json:"subject"`
	Description     string        `json:"description"`
	OrganizerName   string        `json:"organizerName"`
	OrganizerEmail  string        `json:"organizerEmail"`
	RegistrationURL string        `json:"registrationUrl"`
	TimeZone        string        `json:"timeZone"`
	Locale          string        `json:"locale"`
	WebinarTimes    []WebinarTime `json:"webinarTimes"`
	Branding        Branding      `json:"branding"`
}
