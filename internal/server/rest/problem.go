package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const problemContentType = "application/problem+json"

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Status    int               `json:"status"`
	Detail    string            `json:"detail,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

var problemTypes = map[int]string{
	http.StatusBadRequest:          "https://tools.ietf.org/html/rfc9110#section-15.5.1",
	http.StatusUnauthorized:        "https://tools.ietf.org/html/rfc9110#section-15.5.2",
	http.StatusForbidden:           "https://tools.ietf.org/html/rfc9110#section-15.5.4",
	http.StatusNotFound:            "https://tools.ietf.org/html/rfc9110#section-15.5.5",
	http.StatusInternalServerError: "https://tools.ietf.org/html/rfc9110#section-15.6.1",
	http.StatusServiceUnavailable:  "https://tools.ietf.org/html/rfc9110#section-15.6.4",
}

func newProblem(c *gin.Context, status int, detail string) *Problem {
	t, ok := problemTypes[status]
	if !ok {
		t = "about:blank"
	}
	return &Problem{
		Type:      t,
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		RequestID: c.GetString(requestIDKey),
	}
}

func writeProblem(c *gin.Context, p *Problem) {
	body, err := json.Marshal(p)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(p.Status, problemContentType, body)
	c.Abort()
}

func abortWithProblem(c *gin.Context, status int, detail string) {
	writeProblem(c, newProblem(c, status, detail))
}

// respondError maps service errors to problem documents. Unauthorized
// responses never say which check failed and server errors never expose
// internals.
func respondError(c *gin.Context, err error) {
	var verr *common.ValidationError

	switch {
	case errors.As(err, &verr):
		p := newProblem(c, http.StatusBadRequest, "One or more validation errors occurred.")
		p.Errors = verr.Errors
		writeProblem(c, p)
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		abortWithProblem(c, http.StatusUnauthorized, "")
	case errors.Is(err, common.ErrorForbidden):
		abortWithProblem(c, http.StatusForbidden, "")
	case errors.Is(err, common.ErrorNotFound):
		abortWithProblem(c, http.StatusNotFound, "")
	default:
		_ = c.Error(err)
		abortWithProblem(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

// respondBindingError reports a malformed request body, listing failing
// fields when the validator identified them.
func respondBindingError(c *gin.Context, err error) {
	p := newProblem(c, http.StatusBadRequest, "The request body is invalid.")

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		p.Errors = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			p.Errors[fe.Field()] = "failed '" + fe.Tag() + "' validation"
		}
	}

	writeProblem(c, p)
}
