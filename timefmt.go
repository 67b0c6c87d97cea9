package unfurl

import (
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

type rangeLayout struct {
	start, end string
}

var usLayout = rangeLayout{"Monday, January 2, 2006 3:04 PM", "3:04 PM MST"}

// Word order and clock per locale. Locales missing here use usLayout.
var rangeLayouts = map[monday.Locale]rangeLayout{
	monday.LocaleEnUS: usLayout,
	monday.LocaleEnGB: {"Monday, 2 January 2006 15:04", "15:04 MST"},
	monday.LocaleFrFR: {"Monday 2 January 2006 15:04", "15:04 MST"},
	monday.LocaleDeDE: {"Monday, 2. January 2006 15:04", "15:04 MST"},
	monday.LocaleEsES: {"Monday, 2 de January de 2006 15:04", "15:04 MST"},
	monday.LocaleItIT: {"Monday 2 January 2006 15:04", "15:04 MST"},
	monday.LocaleNlNL: {"Monday 2 January 2006 15:04", "15:04 MST"},
	monday.LocalePtBR: {"Monday, 2 de January de 2006 15:04", "15:04 MST"},
	monday.LocaleRuRU: {"Monday, 2 January 2006 15:04", "15:04 MST"},
	monday.LocaleJaJP: {"2006年1月2日 Monday 15:04", "15:04 MST"},
	monday.LocaleZhCN: {"2006年1月2日 Monday 15:04", "15:04 MST"},
}

// Locales with translated day and month names. The first entry is the
// fallback.
var supportedLocales = []monday.Locale{
	monday.LocaleEnUS,
	monday.LocaleEnGB,
	monday.LocaleFrFR,
	monday.LocaleDeDE,
	monday.LocaleEsES,
	monday.LocaleItIT,
	monday.LocaleNlNL,
	monday.LocalePtBR,
	monday.LocaleRuRU,
	monday.LocaleJaJP,
	monday.LocaleZhCN,
}

var localeMatcher = newLocaleMatcher(supportedLocales)

func newLocaleMatcher(locales []monday.Locale) language.Matcher {
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = language.Make(strings.ReplaceAll(string(l), "_", "-"))
	}
	return language.NewMatcher(tags)
}

// matchLocale maps an API locale such as "fr_FR" or "de" to the closest
// supported locale.
func matchLocale(locale string) monday.Locale {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return supportedLocales[0]
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return supportedLocales[0]
	}
	return supportedLocales[idx]
}

// loadLocation returns the named IANA time zone, or UTC when it is unknown.
func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// formatTimeRange renders a session as e.g.
//
//     Monday, March 2, 2026 10:00 AM - 11:00 AM EST
//
// in the word order, clock and day and month names of locale, in time zone
// tz.
func formatTimeRange(start, end time.Time, locale, tz string) string {
	loc := loadLocation(tz)
	l := matchLocale(locale)
	layout, ok := rangeLayouts[l]
	if !ok {
		layout = usLayout
	}
	return monday.Format(start.In(loc), layout.start, l) + " - " + monday.Format(end.In(loc), layout.end, l)
}
