package bizerror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"lexgate/common"
	"lexgate/domain"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidEvaluationRequest marks a malformed access request: the caller
	// has a bug that must surface, it is never silently turned into a deny.
	ErrInvalidEvaluationRequest = errors.New("invalid evaluation request")

	// ErrEvaluationUnavailable means the backing stores could not produce a
	// snapshot; callers must fail closed but never record it as a decision.
	ErrEvaluationUnavailable = errors.New("evaluation unavailable")

	ErrExpiryInPast = errors.New("expiry time is in the past")

	// ErrMissingRequiredField guards service entry points that direct callers
	// may reach without passing request binding.
	ErrMissingRequiredField = errors.New("required field is missing")

	// ErrMismatchedOverrideAction marks an override action outside its
	// namespace, e.g. "hide" on a page override.
	ErrMismatchedOverrideAction = errors.New("override action does not fit override kind")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handle(c)
		c.Next()
	}
}

func handle(c *gin.Context) {
	if ret := recover(); ret != nil {
		err, ok := ret.(error)
		if !ok {
			err = errors.New(fmt.Sprintf("%s", ret))
		}
		HandleError(c, err)
	} else {
		if err := c.Errors.Last(); err != nil {
			HandleError(c, err)
		}
	}
}

func HandleError(c *gin.Context, err error) {
	logrus.Error(err)

	genericErr := err
	var ginErr *gin.Error
	if errors.As(err, &ginErr) {
		genericErr = ginErr.Err
	}

	if bizErr, ok := genericErr.(BizError); ok {
		respond := bizErr.Respond()
		c.JSON(respond.Status, &common.ErrorBody{Code: respond.Code, Message: respond.Message, Data: respond.Data})
		c.Abort()
		return
	}

	// bad request: io.EOF (no body).
	if errors.Is(genericErr, io.EOF) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.body_not_found", Message: "body not found"})
		c.Abort()
		return
	}
	// bad request: json syntax error
	if syntaxErr, ok := genericErr.(*json.SyntaxError); ok {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.invalid_body_format", Message: "invalid body format", Data: syntaxErr.Error()})
		c.Abort()
		return
	}
	// validation failed
	if validationErr, ok := genericErr.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.validation_failed", Message: "validation failed", Data: validationErr.Error()})
		c.Abort()
		return
	}

	if errors.Is(genericErr, ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, &common.ErrorBody{Code: "common.unauthenticated", Message: "unauthenticated"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrForbidden) {
		c.JSON(http.StatusForbidden, &common.ErrorBody{Code: "security.forbidden", Message: "access forbidden"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrInvalidPassword) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "security.invalid_password", Message: "invalid password"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrInvalidEvaluationRequest) || errors.Is(genericErr, domain.ErrUnknownAction) ||
		errors.Is(genericErr, domain.ErrUnknownEffect) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "evaluation.invalid_request", Message: genericErr.Error()})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrEvaluationUnavailable) {
		c.JSON(http.StatusServiceUnavailable, &common.ErrorBody{Code: "evaluation.unavailable", Message: "cannot determine access"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrMismatchedOverrideAction) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.override_action_mismatch", Message: genericErr.Error()})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrMissingRequiredField) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.missing_required_field", Message: genericErr.Error()})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrExpiryInPast) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.expiry_in_past", Message: "expiry time is in the past"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, gorm.ErrRecordNotFound) || errors.Is(genericErr, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, &common.ErrorBody{Code: "common.record_not_found", Message: "record not found"})
		c.Abort()
		return
	}

	c.JSON(http.StatusInternalServerError, &common.ErrorBody{Code: "common.internal_server_error", Message: err.Error()})
	c.Abort()
}
