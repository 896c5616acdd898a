package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
)

func handleError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()

	handler := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := httptest.NewRequest(stdhttp.MethodGet, "/tickets/42", nil)
	recorder := httptest.NewRecorder()
	handler.Handle(recorder, req, err)
	return recorder
}

func TestErrorHandler_AppErrorWithoutCause(t *testing.T) {
	// Request-shape rejections carry a message but no underlying error;
	// handling them must not touch a nil cause.
	recorder := handleError(t, apperrors.NewBadRequestError(nil, "ticketIds must not be empty"))

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "BAD_REQUEST", response.Code)
	assert.Equal(t, "ticketIds must not be empty", response.Error)
}

func TestErrorHandler_AppErrorWithCause(t *testing.T) {
	recorder := handleError(t, apperrors.NewBadRequestError(errors.New("strconv: bad syntax"), "ticket id must be a positive integer"))

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "ticket id must be a positive integer", response.Error)
}

func TestErrorHandler_PartialAuditFailure(t *testing.T) {
	recorder := handleError(t, apperrors.NewPartialAuditError(42, errors.New("comment store down")))

	require.Equal(t, stdhttp.StatusInternalServerError, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "PARTIAL_AUDIT_FAILURE", response.Code)
	assert.EqualValues(t, 42, response.Details["ticketId"])
}
