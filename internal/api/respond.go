package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// errorBody is the failure half of the response envelope
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

const codeUnauthenticated = "unauthenticated"

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Unexpected errors are logged with
// their stack and reported without detail.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	kind := apperr.KindOf(err)
	body := errorBody{Code: kind.String(), Message: err.Error()}

	var appErr *apperr.Error
	if errors.As(err, &appErr) && kind != apperr.KindUnexpected {
		body.Message = appErr.Message
		body.Details = appErr.Details
	}
	if kind == apperr.KindUnexpected {
		log.Error().Stack().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		body.Message = "internal server error"
	}

	c.AbortWithStatusJSON(statusFor(kind), gin.H{"error": body})
}

func respondUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errorBody{
		Code:    codeUnauthenticated,
		Message: message,
	}})
}

// pathID parses a positive integer path parameter
func pathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("invalid %s %q", name, raw).WithDetail(name, "must be a positive integer")
	}
	return id, nil
}

// bindJSON decodes the request body into dst
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return invalidBody(err)
	}
	return nil
}

// bindOptionalJSON is bindJSON that accepts an empty body. Chunked
// requests carry no length, so an immediate EOF also counts as empty.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalidBody(err)
	}
	return nil
}

func invalidBody(err error) error {
	return apperr.Invalid("invalid request body: %v", err).WithDetail("body", "must be valid JSON")
}

// bindQuery decodes the query string into a filter struct
func bindQuery(c *gin.Context, dst any) error {
	if err := queryDecoder.Decode(dst, c.Request.URL.Query()); err != nil {
		return apperr.Invalid("invalid query parameters: %v", err)
	}
	return nil
}
