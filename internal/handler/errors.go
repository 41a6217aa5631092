package handler

import (
	"errors"
	"net/http"

	customError "github.com/segyhp/lending-core/pkg/errors"
	"github.com/segyhp/lending-core/pkg/response"

	"github.com/sirupsen/logrus"
)

var kindStatus = map[string]int{
	customError.KindValidation:   http.StatusBadRequest,
	customError.KindBusinessRule: http.StatusUnprocessableEntity,
	customError.KindForbidden:    http.StatusForbidden,
	customError.KindNotFound:     http.StatusNotFound,
	customError.KindConflict:     http.StatusConflict,
}

// StatusFor maps an error kind to its HTTP status. Unclassified errors are 500.
func StatusFor(err error) int {
	if status, ok := kindStatus[customError.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders err. Internal failures are logged and their details kept
// out of the response body.
func writeError(w http.ResponseWriter, log *logrus.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
		response.Failure(w, status, customError.ErrCodeInternal, "Internal server error")
		return
	}

	message := err.Error()
	var be *customError.BusinessError
	if errors.As(err, &be) {
		message = be.Message
	}
	response.Failure(w, status, customError.CodeOf(err), message)
}

func invalidRequest(message string) error {
	return customError.NewValidationError(customError.ErrCodeInvalidRequest, message)
}
