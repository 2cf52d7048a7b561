package middleware

import (
	"strconv"
	"strings"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

const expectedVersionKey = "expected_version"

// ParseIfMatch reads an If-Match value as an entity version. It accepts
// 3, "3" and W/"3". An empty header means no expectation.
func ParseIfMatch(header string) (*int, error) {
	value := strings.TrimSpace(header)
	if value == "" {
		return nil, nil
	}
	value = strings.TrimPrefix(value, "W/")
	value = strings.Trim(value, `"`)

	version, err := strconv.Atoi(value)
	if err != nil || version < 1 {
		return nil, shared.NewValidationError("If-Match must carry a positive entity version")
	}
	return &version, nil
}

// IfMatch parses the If-Match header of concurrency-checked routes. A
// malformed value is rejected before the handler runs.
func IfMatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		version, err := ParseIfMatch(c.GetHeader("If-Match"))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if version != nil {
			c.Set(expectedVersionKey, *version)
		}
		c.Next()
	}
}

// ExpectedVersion returns the version parsed by IfMatch, or nil
func ExpectedVersion(c *gin.Context) *int {
	if v, ok := c.Get(expectedVersionKey); ok {
		if version, ok := v.(int); ok {
			return &version
		}
	}
	return nil
}
