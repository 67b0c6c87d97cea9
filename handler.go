/*
Package unfurl builds link previews for GoTo meeting and webinar links.

A request path such as /join/123456789 or /register/abc123 is resolved
against the GoTo REST APIs and turned into a small HTML page carrying Open
Graph and Twitter Card metadata, which immediately redirects browsers to the
real join or registration page:

    /join/{meeting id or profile}      GoToMeeting
    /meet/{id}, /connect/{id}          GoToConnect
    /register/{webinar key}            GoToWebinar

Anything else is a 404.
*/
package unfurl

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Action is the first path segment of a link.
type Action string

// Supported actions.
const (
	ActionJoin     Action = "join"
	ActionMeet     Action = "meet"
	ActionConnect  Action = "connect"
	ActionRegister Action = "register"
)

var pathPattern = regexp.MustCompile(`/(join|meet|connect|register)/([\w-]+)$`)

// Default asset and product locations.
const (
	DefaultAssetBaseURL       = "https://tvanier.netlify.com/goto"
	DefaultMeetingJoinURL     = "https://global.gotomeeting.com/join/{id}"
	DefaultConnectJoinURL     = "https://my.jive.com/meet/{id}"
	DefaultWebinarRegisterURL = "https://attendee.gotowebinar.com/register/{id}"
)

// Product names.
const (
	ProductMeeting = "GoToMeeting"
	ProductConnect = "GoToConnect"
	ProductWebinar = "GoToWebinar"
)

// API is everything Handler needs from the GoTo REST APIs.
type API interface {
	MeetingAPI
	WebinarAPI
}

// Options configures a Handler. Zero values fall back to the defaults above.
type Options struct {
	AssetBaseURL       string
	MeetingJoinURL     string
	ConnectJoinURL     string
	WebinarRegisterURL string
	// Now is used to decide which webinar sessions are upcoming.
	Now func() time.Time
}

// Response is the outcome of handling one path.
type Response struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// Handler routes a path to the right resolver and renders the result.
type Handler struct {
	meetings        *MeetingResolver
	webinars        *WebinarResolver
	renderer        *Renderer
	meetingBranding Branding
	connectBranding Branding
}

// NewHandler creates a Handler backed by api.
func NewHandler(api API, opts Options) *Handler {
	opts = withDefaults(opts)
	img := func(name string) string {
		return strings.TrimRight(opts.AssetBaseURL, "/") + "/img/" + name
	}

	return &Handler{
		meetings: NewMeetingResolver(api),
		webinars: NewWebinarResolver(api, opts.WebinarRegisterURL, img("g2w-logo-lmi-text-side.png"), opts.Now),
		renderer: NewRenderer(strings.TrimRight(opts.AssetBaseURL, "/")),
		meetingBranding: Branding{
			Product:  ProductMeeting,
			ImageURL: img("g2m-logo-lmi-text-side.png"),
			JoinURL:  opts.MeetingJoinURL,
		},
		connectBranding: Branding{
			Product:        ProductConnect,
			ImageURL:       img("g2c-logo-lmi-text-side.png"),
			JoinURL:        opts.ConnectJoinURL,
			JoinWithPathID: true,
		},
	}
}

func withDefaults(opts Options) Options {
	if opts.AssetBaseURL == "" {
		opts.AssetBaseURL = DefaultAssetBaseURL
	}
	if opts.MeetingJoinURL == "" {
		opts.MeetingJoinURL = DefaultMeetingJoinURL
	}
	if opts.ConnectJoinURL == "" {
		opts.ConnectJoinURL = DefaultConnectJoinURL
	}
	if opts.WebinarRegisterURL == "" {
		opts.WebinarRegisterURL = DefaultWebinarRegisterURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

// ParsePath extracts the action and id from a path. Matching is case
// insensitive; the returned values are lower case.
func ParsePath(path string) (Action, string, bool) {
	m := pathPattern.FindStringSubmatch(strings.ToLower(path))
	if m == nil {
		return "", "", false
	}
	return Action(m[1]), m[2], true
}

// Handle produces the response for a request path. It never returns an
// error: failures are turned into a response carrying their status code.
func (h *Handler) Handle(ctx context.Context, path string) Response {
	ctx, span := otel.Tracer("github.com/tvanier/unfurl").Start(ctx, "unfurl.handle")
	defer span.End()

	logger := zerolog.Ctx(ctx)

	body, err := h.route(ctx, path)
	if err == nil {
		return Response{
			StatusCode: http.StatusOK,
			Body:       body,
			Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
		}
	}

	var e *Error
	if !errors.As(err, &e) {
		e = internalError(err)
	}
	span.SetAttributes(
		attribute.String("error", e.Error()),
		attribute.String("unfurl.error_kind", e.Kind.String()),
		attribute.Int("unfurl.status_code", e.StatusCode),
	)

	switch e.Kind {
	case KindNotFound:
		logger.Debug().Str("path", path).Msg("no route")
	case KindUpstream:
		logger.Warn().Err(e).Str("path", path).Int("status", e.StatusCode).Msg("upstream lookup failed")
	case KindInternal:
		logger.Error().Err(e).Str("path", path).Msg("error building preview")
	}

	return Response{
		StatusCode: e.StatusCode,
		Body:       e.Message,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}
}

func (h *Handler) route(ctx context.Context, path string) (string, error) {
	action, id, ok := ParsePath(path)
	if !ok {
		return "", notFoundError(path)
	}

	switch action {
	case ActionJoin:
		return h.handleMeeting(ctx, id, h.meetingBranding)
	case ActionMeet, ActionConnect:
		return h.handleMeeting(ctx, id, h.connectBranding)
	case ActionRegister:
		return h.handleWebinar(ctx, id)
	default:
		return "", notFoundError(path)
	}
}

func (h *Handler) handleMeeting(ctx context.Context, id string, b Branding) (string, error) {
	info, err := h.meetings.Resolve(ctx, id, b)
	if err != nil {
		return "", err
	}
	return h.render(RenderModel{
		Product:       b.Product,
		Subject:       info.Subject,
		Description:   info.Description,
		OrganizerName: info.OrganizerName,
		RedirectURL:   info.RedirectURL,
		ImageURL:      info.ImageURL,
		TwitterLabels: info.TwitterLabels,
	})
}

func (h *Handler) handleWebinar(ctx context.Context, key string) (string, error) {
	info, err := h.webinars.Resolve(ctx, key)
	if err != nil {
		return "", err
	}
	return h.render(RenderModel{
		Product:       ProductWebinar,
		Subject:       info.Subject,
		Description:   info.Description,
		OrganizerName: info.OrganizerName,
		RedirectURL:   info.RedirectURL,
		ImageURL:      info.ImageURL,
		TwitterLabels: info.TwitterLabels,
	})
}

func (h *Handler) render(m RenderModel) (string, error) {
	body, err := h.renderer.Render(m)
	if err != nil {
		return "", internalError(err)
	}
	return body, nil
}
