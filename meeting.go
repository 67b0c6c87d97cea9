package unfurl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tvanier/unfurl/gotoapi"
)

const meetingIDLength = 9

var nonDigit = regexp.MustCompile(`\D`)

// Branding is the product a meeting link is presented as.
type Branding struct {
	Product  string
	ImageURL string
	// JoinURL is a URL template with an {id} placeholder.
	JoinURL string
	// JoinWithPathID builds JoinURL from the id found in the request path
	// rather than from the resolved meeting id.
	JoinWithPathID bool
}

// MeetingInfo is a resolved meeting, ready to be rendered.
type MeetingInfo struct {
	Subject       string
	Description   string
	OrganizerName string
	Audio         *gotoapi.Audio
	RedirectURL   string
	ImageURL      string
	TwitterLabels []Label
}

// MeetingAPI is the subset of the GoTo API used to resolve meetings.
type MeetingAPI interface {
	Profile(ctx context.Context, id string) (gotoapi.Profile, error)
	Meeting(ctx context.Context, meetingID string) (gotoapi.Meeting, error)
	Avatar(ctx context.Context, userKey string) (string, bool, error)
}

// MeetingResolver resolves meeting ids and profile aliases.
type MeetingResolver struct {
	api MeetingAPI
}

// NewMeetingResolver creates a MeetingResolver.
func NewMeetingResolver(api MeetingAPI) *MeetingResolver {
	return &MeetingResolver{api: api}
}

// Resolve looks up the meeting behind id, which is either a 9 digit meeting
// id (separators allowed) or a profile alias. Only a failed alias lookup is
// an error; a missing meeting still produces a page.
func (r *MeetingResolver) Resolve(ctx context.Context, id string, b Branding) (MeetingInfo, error) {
	logger := zerolog.Ctx(ctx)

	meetingID := id
	var profile *gotoapi.Profile
	if len(nonDigit.ReplaceAllString(id, "")) != meetingIDLength {
		p, err := r.api.Profile(ctx, id)
		if err != nil {
			return MeetingInfo{}, upstreamError(err)
		}
		profile = &p
		meetingID = p.MeetingID.String()
	}

	joinID := meetingID
	if b.JoinWithPathID {
		joinID = id
	}
	redirect, err := redirectURL(expandTemplate(b.JoinURL, joinID))
	if err != nil {
		return MeetingInfo{}, internalError(err)
	}

	meeting, err := r.api.Meeting(ctx, meetingID)
	if err != nil {
		if ctx.Err() != nil {
			return MeetingInfo{}, internalError(ctx.Err())
		}
		logger.Info().Err(err).Str("meeting_id", meetingID).Msg("meeting lookup failed")
		meeting = gotoapi.Meeting{Description: meetingErrorDescription(meetingID, err)}
	}

	organizerName := meeting.Organizer.FirstName + " " + meeting.Organizer.LastName

	avatarURL, profile := r.resolveImage(ctx, meeting, profile)
	imageURL, err := redirectURL(b.ImageURL, avatarURL)
	if err != nil {
		return MeetingInfo{}, internalError(err)
	}

	if profile != nil && profile.Title != "" {
		organizerName += ", " + profile.Title
	}
	organizerName = escapeHTML(organizerName)

	labels := []Label{{Name: "Organizer", Value: organizerName}}
	if profile != nil && profile.Location != "" {
		labels = append(labels, Label{Name: "Location", Value: escapeHTML(profile.Location)})
	}

	description := meeting.Description
	if meeting.Audio != nil {
		description = appendSentence(description, audioDescription(*meeting.Audio))
	}

	return MeetingInfo{
		Subject:       escapeHTML(meeting.Subject),
		Description:   escapeHTML(description),
		OrganizerName: organizerName,
		Audio:         meeting.Audio,
		RedirectURL:   redirect,
		ImageURL:      imageURL,
		TwitterLabels: labels,
	}, nil
}

// resolveImage finds the best picture of the organizer: their uploaded
// avatar, else the avatar of the meeting's profile. It returns "" when there
// is none, along with the profile if one was loaded along the way. Failures
// are logged and otherwise ignored.
func (r *MeetingResolver) resolveImage(ctx context.Context, meeting gotoapi.Meeting, profile *gotoapi.Profile) (string, *gotoapi.Profile) {
	logger := zerolog.Ctx(ctx)

	avatarURL, err := func() (string, error) {
		userKey := meeting.Organizer.UserKey.String()
		if userKey == "" && profile != nil {
			userKey = profile.UserKey.String()
		}
		if userKey != "" {
			u, ok, err := r.api.Avatar(ctx, userKey)
			if err != nil {
				return "", err
			}
			if ok {
				return u, nil
			}
		}

		if meeting.ProfileID != "" && profile == nil {
			p, err := r.api.Profile(ctx, meeting.ProfileID.String())
			if err != nil {
				return "", err
			}
			profile = &p
		}
		return "", nil
	}()
	if err != nil {
		logger.Debug().Err(err).Msg("ignoring avatar lookup failure")
	}

	if avatarURL == "" && profile != nil {
		avatarURL = profile.AvatarURL
	}
	return avatarURL, profile
}

func meetingErrorDescription(meetingID string, err error) string {
	var se *gotoapi.StatusError
	switch {
	case errors.As(err, &se) && se.StatusCode == http.StatusNotFound:
		return fmt.Sprintf("Sorry, the meeting with ID %s was not found", meetingID)
	case errors.As(err, &se):
		return se.Body
	default:
		return ""
	}
}

func appendSentence(text, sentence string) string {
	sentence = strings.TrimSpace(sentence)
	switch {
	case sentence == "":
		return text
	case text == "" || strings.HasSuffix(text, " ") || strings.HasSuffix(text, "\n"):
		return text + sentence
	default:
		return text + " " + sentence
	}
}

// audioDescription describes how to join a meeting's audio.
func audioDescription(audio gotoapi.Audio) string {
	var text string
	switch audio.AudioType {
	case "voip":
		text = "Join from your computer."
	case "pstn":
		text = "Join by phone."
	case "voipAndPstn":
		text = "Join from your computer or by phone."
	}

	if strings.Contains(strings.ToLower(audio.AudioType), "pstn") {
		if n := len(audio.DialOutInfo); n > 0 {
			text += fmt.Sprintf(" Let GoTo call you in %d countries.", n)
		}
		tollFree := 0
		for _, p := range audio.PhoneNumbers {
			if p.TollFree {
				tollFree++
			}
		}
		if tollFree > 0 {
			text += fmt.Sprintf(" Dial In Toll Free from %d countries.", tollFree)
		}
	}
	return text
}
