package api

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/models"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// errorTable maps the error taxonomy to responses. Specific errors come
// before their kinds; the first match wins. Anything unmatched is a 500.
var errorTable = []errorMapping{
	{models.ErrEmailAlreadyExists, http.StatusAccepted, "Accepted"},
	{models.ErrUserNotFound, http.StatusBadRequest, "Email does not exist on the waiting list"},
	{models.ErrTokenAlreadyExists, http.StatusBadRequest, "Token already exists"},
	{models.ErrTokenNotRegistered, http.StatusBadRequest, "User does not exist"},
	{models.ErrAlreadyRevoked, http.StatusBadRequest, "User seemed to be revoked already"},
	{models.ErrEmptyToken, http.StatusBadRequest, "Token must be supplied"},
	{models.ErrEmptyEmail, http.StatusBadRequest, "Email must be supplied"},
	{models.ErrNegativeLimit, http.StatusBadRequest, "Monthly limit must not be negative"},
	{models.ErrInvalidBody, http.StatusBadRequest, "Invalid request body"},
	{models.ErrQuotaExceeded, http.StatusTooManyRequests, "Monthly limit exceeded"},
	{models.ErrNotFound, http.StatusBadRequest, "Not found"},
	{models.ErrAlreadyExists, http.StatusBadRequest, "Already exists"},
	{models.ErrEmptyInput, http.StatusBadRequest, "Missing required field"},
}

const internalMessage = "Internal Server Error"

func lookupError(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, internalMessage
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := lookupError(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	writeMessage(w, status, message)
}
