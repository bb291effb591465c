package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// literalUnescaper restores the plain characters the policy escapes in text.
// Angle brackets stay encoded so entity-written markup never turns into tags.
var literalUnescaper = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`)

// SanitizeAndCleanInputMiddleware strips markup from every string in a JSON
// body, including nested objects and arrays. Empty bodies pass through.
func SanitizeAndCleanInputMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body any
		if err := json.Unmarshal(buf, &body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
			return
		}

		newBody, err := json.Marshal(sanitizeValue(body))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(newBody))
		c.Request.ContentLength = int64(len(newBody))

		c.Next()
	}
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return literalUnescaper.Replace(strictPolicy.Sanitize(t))
	case map[string]any:
		for k, item := range t {
			t[k] = sanitizeValue(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = sanitizeValue(item)
		}
		return t
	default:
		return v
	}
}
