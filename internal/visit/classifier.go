// Doorbell - Visitor Telemetry and Alert Delivery
// Copyright 2026 Dara Cheol (daracheol)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/daracheol/doorbell

package visit

import (
	"net/http"
	"regexp"
	"strings"
)

// Classification outcomes. Only DecisionTrackable enters the pipeline; the
// rest name the first rule that excluded the request.
const (
	DecisionTrackable = "trackable"
	DecisionReferrer  = "referrer"
	DecisionAsset     = "asset"
	DecisionCookie    = "cookie"
	DecisionFavicon   = "favicon"
)

// visitedCookieName flags a browser that already produced an alert recently.
const visitedCookieName = "_visited"

var staticAssetPattern = regexp.MustCompile(`\.(?:js|css|png|jpe?g|svg|ico|woff2?|ttf|map)$`)

// Classifier decides which requests count as trackable visits. It is a pure
// decision function with no side effects.
type Classifier struct {
	allowedReferrers []string
	faviconPath      string
}

// NewClassifier creates a classifier admitting only requests referred from
// one of the given frontend origins.
func NewClassifier(allowedReferrers []string, faviconPath string) *Classifier {
	return &Classifier{
		allowedReferrers: allowedReferrers,
		faviconPath:      faviconPath,
	}
}

// Classify applies the exclusion rules in order and returns the first match.
func (c *Classifier) Classify(r *http.Request) string {
	if !c.referrerAllowed(r.Referer()) {
		return DecisionReferrer
	}
	if staticAssetPattern.MatchString(r.URL.Path) {
		return DecisionAsset
	}
	if _, err := r.Cookie(visitedCookieName); err == nil {
		return DecisionCookie
	}
	if r.URL.Path == c.faviconPath {
		return DecisionFavicon
	}
	return DecisionTrackable
}

func (c *Classifier) referrerAllowed(referrer string) bool {
	if referrer == "" {
		return false
	}
	for _, origin := range c.allowedReferrers {
		if strings.HasPrefix(referrer, origin) {
			return true
		}
	}
	return false
}

// SetVisitedCookie marks the browser as recently seen. Called exactly once
// per trackable request, before the pipeline runs, so the flag is refreshed
// even when the cooldown suppresses the alert.
func SetVisitedCookie(w http.ResponseWriter, maxAge int, production bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     visitedCookieName,
		Value:    "true",
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteStrictMode,
	})
}
