package app

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/toast"
)

// errorToastDuration is how long request failures stay on screen.
const errorToastDuration = 10 * time.Second

// silentEndpoints are polled in the background; their GET failures are
// logged but never toasted.
var silentEndpoints = []*regexp.Regexp{
	regexp.MustCompile(`^/api/stats(/?|$)`),
	regexp.MustCompile(`^/api/subscriptions/stats(/?|$)`),
	regexp.MustCompile(`^/api/admins/current(/?|$)`),
}

// Reporter turns API errors into error toasts.
type Reporter struct {
	toasts toast.Notifier
	logger glog.Logger
}

// NewReporter returns a Reporter that shows toasts through toasts.
func NewReporter(toasts toast.Notifier, logger glog.Logger) *Reporter {
	return &Reporter{toasts: toasts, logger: glog.Ensure(logger)}
}

// HandleAPIError implements guardcore.ErrorHandler.
func (r *Reporter) HandleAPIError(err *guardcore.APIError) {
	if err == nil {
		return
	}
	if Silenced(err) {
		r.logger.Debug("api error silenced", "method", err.Method, "endpoint", err.Endpoint, "status", err.Status)
		return
	}
	if r.toasts == nil {
		return
	}
	r.toasts.Notify(toast.Toast{
		Level:       toast.LevelError,
		Message:     err.Method + " " + err.Endpoint,
		Description: Describe(err),
		Duration:    errorToastDuration,
	})
}

// Silenced reports whether err is a GET failure on a background endpoint.
func Silenced(err *guardcore.APIError) bool {
	if err == nil || err.Method != http.MethodGet {
		return false
	}
	for _, pattern := range silentEndpoints {
		if pattern.MatchString(err.Endpoint) {
			return true
		}
	}
	return false
}

// Describe renders the toast body for err: "Status: <status> - <message>".
// Validation details are shown as their messages joined by ", ".
func Describe(err *guardcore.APIError) string {
	message := err.Message
	if err.Detail.Kind == guardcore.DetailValidation {
		if msgs := err.Detail.Messages(); len(msgs) > 0 {
			message = strings.Join(msgs, ", ")
		}
	}
	return fmt.Sprintf("Status: %d - %s", err.Status, message)
}
