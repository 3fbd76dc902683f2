package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"foreclosure-voice/pkg/logger"
)

const headerTwilioSignature = "X-Twilio-Signature"

// ComputeSignature returns Twilio's request signature: base64 HMAC-SHA1 of
// the full URL followed by every POST parameter, sorted by name.
func ComputeSignature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// RequireTwilioSignature rejects webhooks whose signature does not match.
// publicBaseURL must be the origin Twilio was configured with, since the
// service usually sits behind a proxy that rewrites scheme and host.
// An empty authToken disables the check.
func RequireTwilioSignature(authToken, publicBaseURL string) gin.HandlerFunc {
	base := strings.TrimRight(publicBaseURL, "/")
	return func(c *gin.Context) {
		if authToken == "" {
			c.Next()
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			logger.FromGin(c).Warn("webhook form parse failed", "err", err)
			writeApology(c, http.StatusBadRequest)
			return
		}
		fullURL := base + c.Request.URL.RequestURI()
		want := ComputeSignature(authToken, fullURL, c.Request.PostForm)
		got := c.GetHeader(headerTwilioSignature)
		if got == "" || !hmac.Equal([]byte(got), []byte(want)) {
			logger.FromGin(c).Warn("webhook signature mismatch", "path", c.Request.URL.Path)
			writeApology(c, http.StatusForbidden)
			return
		}
		c.Next()
	}
}
