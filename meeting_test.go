package unfurl

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvanier/unfurl/gotoapi"
)

func dialOut(n int) []json.RawMessage {
	entries := make([]json.RawMessage, n)
	for i := range entries {
		entries[i] = json.RawMessage(`{}`)
	}
	return entries
}

func TestAudioDescription(t *testing.T) {
	phoneNumbers := []gotoapi.PhoneNumber{
		{Country: "US", TollFree: true},
		{Country: "FR", TollFree: true},
		{Country: "DE", TollFree: false},
	}

	testCases := map[string]struct {
		audio gotoapi.Audio
		want  string
	}{
		"voip": {
			audio: gotoapi.Audio{AudioType: "voip"},
			want:  "Join from your computer.",
		},
		"pstn only": {
			audio: gotoapi.Audio{AudioType: "pstn"},
			want:  "Join by phone.",
		},
		"pstn with dial out and toll free": {
			audio: gotoapi.Audio{AudioType: "pstn", PhoneNumbers: phoneNumbers, DialOutInfo: dialOut(3)},
			want:  "Join by phone. Let GoTo call you in 3 countries. Dial In Toll Free from 2 countries.",
		},
		"voip and pstn": {
			audio: gotoapi.Audio{AudioType: "voipAndPstn", PhoneNumbers: phoneNumbers},
			want:  "Join from your computer or by phone. Dial In Toll Free from 2 countries.",
		},
		"private": {
			audio: gotoapi.Audio{AudioType: "private", PhoneNumbers: phoneNumbers, DialOutInfo: dialOut(1)},
			want:  "",
		},
		"unknown type": {
			audio: gotoapi.Audio{AudioType: "hybrid"},
			want:  "",
		},
		"pstn matched case insensitively": {
			audio: gotoapi.Audio{AudioType: "PSTN", DialOutInfo: dialOut(1)},
			want:  " Let GoTo call you in 1 countries.",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, audioDescription(tc.audio))
		})
	}
}

func TestAppendSentence(t *testing.T) {
	assert.Equal(t, "Status. Join by phone.", appendSentence("Status.", "Join by phone."))
	assert.Equal(t, "Join by phone.", appendSentence("", "Join by phone."))
	assert.Equal(t, "Status.", appendSentence("Status.", ""))
	assert.Equal(t, "Status. Let GoTo call you in 1 countries.", appendSentence("Status.", " Let GoTo call you in 1 countries."))
}

func TestMeetingAudioInDescription(t *testing.T) {
	h, _ := newTestHandler(t, map[string]upstreamResponse{
		"GET /rest/2/meetings/123456789": okResponse(`{
			"subject": "Weekly sync",
			"description": "Status update.",
			"audio": {
				"audioType": "pstn",
				"phoneNumbers": [
					{"country": "US", "tollFree": true},
					{"country": "FR", "tollFree": true},
					{"country": "DE", "tollFree": false}
				],
				"dialOutInfo": [{}, {}, {}]
			}
		}`),
	})

	resp := h.Handle(context.Background(), "/join/123456789")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	description := metaContent(t, resp.Body, "og:description")
	assert.True(t,
		strings.HasSuffix(description, "Join by phone. Let GoTo call you in 3 countries. Dial In Toll Free from 2 countries."),
		"unexpected description %q", description)
	assert.True(t, strings.HasPrefix(description, "Status update."))
}

func TestMeetingImage(t *testing.T) {
	const meeting = `{"subject": "s", "organizer": {"userKey": "u1"}, "profileId": 987}`

	testCases := map[string]struct {
		responses    map[string]upstreamResponse
		path         string
		wantImage    string // suffix
		wantRequests []string
		wantOrg      string
		wantLocation string
	}{
		"uploaded avatar wins": {
			responses: map[string]upstreamResponse{
				"GET /rest/2/meetings/123456789": okResponse(meeting),
				"HEAD /avatars/u1_medium.jpg":    {},
			},
			path:      "/join/123456789",
			wantImage: "/avatars/u1_medium.jpg",
			wantRequests: []string{
				"GET /rest/2/meetings/123456789",
				"HEAD /avatars/u1_medium.jpg",
			},
			wantOrg: " ",
		},
		"default avatar falls back to the meeting profile": {
			responses: map[string]upstreamResponse{
				"GET /rest/2/meetings/123456789": okResponse(meeting),
				"HEAD /avatars/u1_medium.jpg":    {header: map[string]string{"x-amz-meta-type": "default"}},
				"GET /rest/2/profiles/987":       okResponse(`{"avatarUrl": "https://cdn.example.com/p.jpg", "title": "VP", "location": "Paris"}`),
			},
			path:      "/join/123456789",
			wantImage: "https://cdn.example.com/p.jpg",
			wantRequests: []string{
				"GET /rest/2/meetings/123456789",
				"HEAD /avatars/u1_medium.jpg",
				"GET /rest/2/profiles/987",
			},
			wantOrg:      " , VP",
			wantLocation: "Paris",
		},
		"profile without avatar falls back to the logo": {
			responses: map[string]upstreamResponse{
				"GET /rest/2/meetings/123456789": okResponse(meeting),
				"HEAD /avatars/u1_medium.jpg":    {header: map[string]string{"x-amz-meta-type": "default"}},
				"GET /rest/2/profiles/987":       okResponse(`{}`),
			},
			path:      "/join/123456789",
			wantImage: "/img/g2m-logo-lmi-text-side.png",
			wantRequests: []string{
				"GET /rest/2/meetings/123456789",
				"HEAD /avatars/u1_medium.jpg",
				"GET /rest/2/profiles/987",
			},
			wantOrg: " ",
		},
		"avatar probe failure is ignored": {
			responses: map[string]upstreamResponse{
				"GET /rest/2/meetings/123456789": okResponse(meeting),
				"HEAD /avatars/u1_medium.jpg":    {code: http.StatusForbidden},
			},
			path:      "/join/123456789",
			wantImage: "/img/g2m-logo-lmi-text-side.png",
			wantRequests: []string{
				"GET /rest/2/meetings/123456789",
				"HEAD /avatars/u1_medium.jpg",
			},
			wantOrg: " ",
		},
		"secondary profile failure is ignored": {
			responses: map[string]upstreamResponse{
				"GET /rest/2/meetings/123456789": okResponse(`{"subject": "s", "profileId": "missing"}`),
			},
			path:      "/join/123456789",
			wantImage: "/img/g2m-logo-lmi-text-side.png",
			wantRequests: []string{
				"GET /rest/2/meetings/123456789",
				"GET /rest/2/profiles/missing",
			},
			wantOrg: " ",
		},
		"alias profile is not fetched twice": {
			responses: map[string]upstreamResponse{
				"GET /rest/2/profiles/room":      okResponse(`{"meetingId": 123456789, "userKey": "u2", "avatarUrl": "https://cdn.example.com/room.jpg"}`),
				"GET /rest/2/meetings/123456789": okResponse(`{"subject": "s", "profileId": "room"}`),
				"HEAD /avatars/u2_medium.jpg":    {header: map[string]string{"x-amz-meta-type": "default"}},
			},
			path:      "/join/room",
			wantImage: "https://cdn.example.com/room.jpg",
			wantRequests: []string{
				"GET /rest/2/profiles/room",
				"GET /rest/2/meetings/123456789",
				"HEAD /avatars/u2_medium.jpg",
			},
			wantOrg: " ",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			h, fake := newTestHandler(t, tc.responses)

			resp := h.Handle(context.Background(), tc.path)
			require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
			assert.True(t, strings.HasSuffix(metaContent(t, resp.Body, "og:image"), tc.wantImage),
				"image %q does not end with %q", metaContent(t, resp.Body, "og:image"), tc.wantImage)
			assert.Equal(t, tc.wantRequests, fake.Requests())
			assert.Equal(t, tc.wantOrg, twitterValue(t, resp.Body, "twitter:data1"))
			if tc.wantLocation != "" {
				assert.Equal(t, tc.wantLocation, twitterValue(t, resp.Body, "twitter:data2"))
			} else {
				assert.NotContains(t, resp.Body, "twitter:label2")
			}
		})
	}
}
