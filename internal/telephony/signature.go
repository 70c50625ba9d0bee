package telephony

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	twclient "github.com/twilio/twilio-go/client"

	"outreach-agent/pkg/logger"
)

const headerTwilioSignature = "X-Twilio-Signature"

// RequireTwilioSignature rejects webhooks that were not signed with authToken.
// baseURL is the public root Twilio was given; the request URI is appended to it.
func RequireTwilioSignature(authToken, baseURL string) gin.HandlerFunc {
	baseURL = strings.TrimRight(baseURL, "/")
	validator := twclient.NewRequestValidator(authToken)
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}
		params := lo.MapValues(c.Request.PostForm, func(v []string, _ string) string {
			return lo.FirstOr(v, "")
		})
		sig := c.GetHeader(headerTwilioSignature)
		full := baseURL + c.Request.URL.RequestURI()
		if sig == "" || !validator.Validate(full, params, sig) {
			logger.FromGin(c).Warn("twilio signature rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}
