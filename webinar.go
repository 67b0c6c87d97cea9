package unfurl

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/tvanier/unfurl/gotoapi"
)

var nonWord = regexp.MustCompile(`\W`)

// Webinar time labels.
const (
	labelTime     = "Time"
	labelNextTime = "Next Time"
)

// WebinarInfo is a resolved webinar, ready to be rendered.
type WebinarInfo struct {
	Subject       string
	Description   string
	OrganizerName string
	RedirectURL   string
	ImageURL      string
	// Time is the formatted session, empty when the webinar has none.
	Time          string
	TimeLabel     string
	Presenters    []gotoapi.Presenter
	TwitterLabels []Label
}

// WebinarAPI is the subset of the GoTo API used to resolve webinars.
type WebinarAPI interface {
	Webinar(ctx context.Context, key string, includes ...string) (gotoapi.Webinar, error)
}

// WebinarResolver resolves webinar keys.
type WebinarResolver struct {
	api         WebinarAPI
	registerURL string
	imageURL    string
	now         func() time.Time
}

// NewWebinarResolver creates a WebinarResolver. registerURL is the {id}
// template used when the webinar has no registration URL of its own, and
// imageURL the product logo used when it has no branding.
func NewWebinarResolver(api WebinarAPI, registerURL, imageURL string, now func() time.Time) *WebinarResolver {
	if now == nil {
		now = time.Now
	}
	return &WebinarResolver{
		api:         api,
		registerURL: registerURL,
		imageURL:    imageURL,
		now:         now,
	}
}

// Resolve looks up a webinar by key. Any API failure is returned.
func (r *WebinarResolver) Resolve(ctx context.Context, key string) (WebinarInfo, error) {
	key = nonWord.ReplaceAllString(key, "")

	webinar, err := r.api.Webinar(ctx, key, gotoapi.WebinarIncludes...)
	if err != nil {
		return WebinarInfo{}, upstreamError(err)
	}

	organizerName := webinar.OrganizerName
	if webinar.OrganizerEmail != "" {
		organizerName += " - " + webinar.OrganizerEmail
	}

	info := WebinarInfo{
		Subject:       escapeHTML(webinar.Subject),
		Description:   escapeHTML(webinar.Description),
		OrganizerName: escapeHTML(organizerName),
		Presenters:    webinar.Branding.WebinarPresenters,
	}

	registrationURL := webinar.RegistrationURL
	if wt, label, ok := selectWebinarTime(webinar.WebinarTimes, r.now()); ok {
		info.Time = formatWebinarTime(wt, webinar.Locale, webinar.TimeZone)
		info.TimeLabel = label
		if wt.RegistrationURL != "" {
			registrationURL = wt.RegistrationURL
		}
	}

	if info.RedirectURL, err = redirectURL(expandTemplate(r.registerURL, key), registrationURL); err != nil {
		return WebinarInfo{}, internalError(err)
	}

	var imageURL string
	switch presenters := webinar.Branding.WebinarPresenters; {
	case webinar.Branding.LogoImageURL != "":
		imageURL = webinar.Branding.LogoImageURL
	case len(presenters) == 1:
		imageURL = presenters[0].ImageURL
	}
	if info.ImageURL, err = redirectURL(r.imageURL, imageURL); err != nil {
		return WebinarInfo{}, internalError(err)
	}

	info.TwitterLabels = []Label{{Name: "Organizer", Value: info.OrganizerName}}
	if info.Time != "" {
		info.TwitterLabels = append(info.TwitterLabels, Label{Name: info.TimeLabel, Value: escapeHTML(info.Time)})
	}
	if len(info.Presenters) > 0 {
		names := make([]string, len(info.Presenters))
		for i, p := range info.Presenters {
			names[i] = p.Name
		}
		info.TwitterLabels = append(info.TwitterLabels, Label{Name: "Presenters", Value: escapeHTML(strings.Join(names, ", "))})
	}

	return info, nil
}

// selectWebinarTime picks the session to show: the only one, else the first
// one starting at or after now ("Next Time"), else the last one.
func selectWebinarTime(times []gotoapi.WebinarTime, now time.Time) (gotoapi.WebinarTime, string, bool) {
	switch len(times) {
	case 0:
		return gotoapi.WebinarTime{}, "", false
	case 1:
		return times[0], labelTime, true
	}
	for _, wt := range times {
		start, err := time.Parse(time.RFC3339, wt.StartTime)
		if err == nil && !start.Before(now) {
			return wt, labelNextTime, true
		}
	}
	return times[len(times)-1], labelTime, true
}

// formatWebinarTime formats a session, or returns "" if its times cannot be
// parsed.
func formatWebinarTime(wt gotoapi.WebinarTime, locale, tz string) string {
	start, err := time.Parse(time.RFC3339, wt.StartTime)
	if err != nil {
		return ""
	}
	end, err := time.Parse(time.RFC3339, wt.EndTime)
	if err != nil {
		end = start
	}
	return formatTimeRange(start, end, locale, tz)
}
