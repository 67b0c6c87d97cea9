package unfurl

import (
	"strings"

	"golang.org/x/net/html"
)

// escapeHTML escapes the five characters that matter inside HTML text and
// double-quoted attributes: & < > " and '.
func escapeHTML(s string) string {
	return html.EscapeString(s)
}

// unsafeURLChars would let a URL break out of a quoted attribute or a
// single-quoted script string. They are percent-encoded rather than entity
// escaped so the URL stays valid in both places.
var unsafeURLChars = strings.NewReplacer(
	`"`, "%22",
	`'`, "%27",
	`<`, "%3C",
	`>`, "%3E",
	`\`, "%5C",
	"`", "%60",
	" ", "%20",
	"\n", "",
	"\r", "",
	"\t", "",
)
