// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans free-text payloads before they are
// persisted. Position/description text set on accept and portfolio
// feedback come from end users and may be rendered by downstream
// surfaces, so script content and event handlers must never be stored.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	// ugc keeps common formatting (p, strong, em, lists, safe links)
	// while stripping scripts, event handlers, and javascript: URLs.
	ugc = bluemonday.UGCPolicy()

	// strict strips all markup, leaving plain text.
	strict = bluemonday.StrictPolicy()
)

// Sanitize returns s with unsafe HTML removed. Safe formatting tags are
// preserved.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc.Sanitize(s)
}

// Plain strips all markup from s, returning plain text. Used for fields
// that are never rendered as HTML, like an application's position.
func Plain(s string) string {
	if s == "" {
		return ""
	}
	return strict.Sanitize(s)
}
