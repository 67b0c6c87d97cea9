/*
Package gotoapi is a small client for the public GoToMeeting and GoToWebinar
REST endpoints used to build link previews.

Only the handful of read-only calls needed for unfurling are implemented:

    GET  {meetingAPI}/profiles/{id}
    GET  {meetingAPI}/meetings/{meetingID}
    HEAD {avatarBase}/{userKey}_medium.jpg
    GET  {webinarAPI}/webinars/{key}?includes=branding,organizerInfo

Any response other than 200 OK is returned as a *StatusError.
*/
package gotoapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tvanier/unfurl/bufferpool"
)

// Default upstream locations.
const (
	DefaultMeetingAPIURL = "https://global.gotomeeting.com/rest/2"
	DefaultWebinarAPIURL = "https://global.gotowebinar.com/api/V2"
	DefaultAvatarURL     = "https://avatars.servers.getgo.com"
)

// AvatarTypeHeader is set to "default" by the avatar store when a user has
// not uploaded a picture of their own.
const AvatarTypeHeader = "X-Amz-Meta-Type"

const defaultTimeout = 10 * time.Second

// WebinarIncludes are the optional webinar sections requested by default.
var WebinarIncludes = []string{"branding", "organizerInfo"}

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	MeetingAPIURL string
	WebinarAPIURL string
	AvatarURL     string
	Transport     http.RoundTripper
	Headers       map[string]string
	Timeout       time.Duration
}

// Client talks to the GoTo REST APIs.
type Client struct {
	meetingAPIURL string
	webinarAPIURL string
	avatarURL     string
	httpClient    *http.Client
	fetchGroup    *singleflight.Group
	pool          *bufferpool.BufferPool
}

// New creates a new Client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		meetingAPIURL: trimBase(opts.MeetingAPIURL, DefaultMeetingAPIURL),
		webinarAPIURL: trimBase(opts.WebinarAPIURL, DefaultWebinarAPIURL),
		avatarURL:     trimBase(opts.AvatarURL, DefaultAvatarURL),
		httpClient: &http.Client{
			Transport: newHeaderTransport(opts.Transport, opts.Headers),
			Timeout:   timeout,
		},
		fetchGroup: &singleflight.Group{},
		pool:       bufferpool.New(),
	}
}

// Profile fetches a profile by its alias or id.
func (c *Client) Profile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := c.getJSON(ctx, fmt.Sprintf("%s/profiles/%s", c.meetingAPIURL, url.PathEscape(id)), &p)
	return p, err
}

// Meeting fetches a meeting by its numeric id.
func (c *Client) Meeting(ctx context.Context, meetingID string) (Meeting, error) {
	var m Meeting
	err := c.getJSON(ctx, fmt.Sprintf("%s/meetings/%s", c.meetingAPIURL, url.PathEscape(meetingID)), &m)
	return m, err
}

// Webinar fetches a webinar by its key, along with the given includes
// (WebinarIncludes when none are given).
func (c *Client) Webinar(ctx context.Context, key string, includes ...string) (Webinar, error) {
	if len(includes) == 0 {
		includes = WebinarIncludes
	}
	params := url.Values{"includes": []string{strings.Join(includes, ",")}}
	u := fmt.Sprintf("%s/webinars/%s?%s", c.webinarAPIURL, url.PathEscape(key), params.Encode())

	var w Webinar
	err := c.getJSON(ctx, u, &w)
	return w, err
}

// AvatarURL returns the conventional avatar location for a user.
func (c *Client) AvatarURL(userKey string) string {
	return fmt.Sprintf("%s/%s_medium.jpg", c.avatarURL, url.PathEscape(userKey))
}

// Avatar probes the avatar store for a user's picture. The returned bool is
// false when the store only has the generic placeholder for that user.
func (c *Client) Avatar(ctx context.Context, userKey string) (string, bool, error) {
	avatarURL := c.AvatarURL(userKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, avatarURL, nil)
	if err != nil {
		return "", false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("error probing avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, newStatusError(req, resp, "")
	}
	if resp.Header.Get(AvatarTypeHeader) == "default" {
		return avatarURL, false, nil
	}
	return avatarURL, true, nil
}

func (c *Client) getJSON(ctx context.Context, u string, dst interface{}) error {
	body, err := c.fetch(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid json from %s: %w", u, err)
	}
	return nil
}

// fetch performs a GET, coalescing identical requests that are in flight at
// the same time. Nothing is retained once the request completes.
//
// The shared request runs under the context of whichever caller started it.
// If that context ends early, callers whose own context is still live make
// the request again on their own.
func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	v, err, shared := c.fetchGroup.Do(u, func() (interface{}, error) {
		return c.doFetch(ctx, u)
	})
	if err != nil && shared && ctx.Err() == nil && isContextError(err) {
		return c.doFetch(ctx, u)
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) doFetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Err == context.DeadlineExceeded {
			err = context.DeadlineExceeded
		}
		return nil, fmt.Errorf("error making http request: %w", err)
	}
	defer resp.Body.Close()

	buf := c.pool.Get()
	defer c.pool.Put(buf)

	body, err := readBody(resp, buf)
	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(req, resp, string(body))
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", u, err)
	}
	return body, nil
}

func newStatusError(req *http.Request, resp *http.Response, body string) *StatusError {
	return &StatusError{
		Method:        req.Method,
		URL:           req.URL.String(),
		StatusCode:    resp.StatusCode,
		StatusMessage: resp.Status,
		Header:        resp.Header,
		Body:          body,
	}
}

func trimBase(u, fallback string) string {
	if u == "" {
		u = fallback
	}
	return strings.TrimRight(u, "/")
}
