package forward

import (
	"errors"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/dispatch/meta"
)

// errorXConverter is implemented by errors that know their errx form, such
// as *cqrs.HandlerNotFoundError and *result.UnwrapError.
type errorXConverter interface {
	ErrorX() error
}

type errorSchema struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  []string          `json:"errors,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Trace   string            `json:"trace,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

type errorResponse struct {
	TraceID string      `json:"trace_id,omitempty"`
	Error   errorSchema `json:"error"`
}

// ErrorHandler renders errors returned by handlers as JSON with a status
// code derived from the errx type. With hideDetails, the trace and details
// of the error are left out.
func ErrorHandler(hideDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return WriteErrorResponse(c, err, hideDetails)
	}
}

// WriteErrorResponse writes err to c the way ErrorHandler does.
func WriteErrorResponse(c *fiber.Ctx, err error, hideDetails bool) error {
	e := toErrorX(err)

	return c.Status(StatusCode(e.Type())).JSON(errorResponse{
		TraceID: meta.Get(c.UserContext(), meta.TraceID),
		Error:   buildErrorSchema(e, hideDetails),
	})
}

func buildErrorSchema(e errx.ErrorX, hideDetails bool) errorSchema {
	schema := errorSchema{
		Code:    e.Code(),
		Message: e.Error(),
		Fields:  e.Fields(),
	}

	details := e.Details()
	if errs, ok := details[detailErrors].([]string); ok {
		schema.Errors = errs
	}
	if !hideDetails {
		schema.Trace = e.Trace()
		schema.Details = details
	}
	return schema
}

// StatusCode maps an errx type to an HTTP status code.
func StatusCode(t errx.Type) int {
	switch t {
	case errx.T_Authentication:
		return fiber.StatusUnauthorized
	case errx.T_Forbidden:
		return fiber.StatusForbidden
	case errx.T_NotFound:
		return fiber.StatusNotFound
	case errx.T_Validation:
		return fiber.StatusBadRequest
	case errx.T_Conflict:
		return fiber.StatusConflict
	case errx.T_Throttling:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

func toErrorX(err error) errx.ErrorX {
	var conv errorXConverter
	if errors.As(err, &conv) {
		return errx.AsErrorX(conv.ErrorX())
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return errx.AsErrorX(errx.New(
			fiberErr.Message,
			errx.WithCode(CodeRouterError),
			errx.WithType(fiberErrorType(fiberErr.Code)),
		))
	}

	return errx.AsErrorX(err)
}

func fiberErrorType(status int) errx.Type {
	switch {
	case status == fiber.StatusUnauthorized:
		return errx.T_Authentication
	case status == fiber.StatusForbidden:
		return errx.T_Forbidden
	case status == fiber.StatusNotFound:
		return errx.T_NotFound
	case status == fiber.StatusConflict:
		return errx.T_Conflict
	case status == fiber.StatusTooManyRequests:
		return errx.T_Throttling
	case status >= fiber.StatusBadRequest && status < fiber.StatusInternalServerError:
		return errx.T_Validation
	default:
		return errx.T_Internal
	}
}
