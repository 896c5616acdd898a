package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mw "github.com/lorrc/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-backend/internal/auth"
	"github.com/lorrc/helpdesk-backend/internal/core/cache"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/mocks"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
)

type ticketHandlerFixture struct {
	tickets   *mocks.MockTicketRepository
	comments  *mocks.MockCommentRepository
	directory *mocks.MockDirectoryRepository
	bulk      *services.BulkService
	router    *chi.Mux
	tm        *auth.TokenManager
}

func newTicketHandlerFixture(t *testing.T) *ticketHandlerFixture {
	t.Helper()

	tickets := new(mocks.MockTicketRepository)
	comments := new(mocks.MockCommentRepository)
	directory := new(mocks.MockDirectoryRepository)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cacheStore := cache.New(cache.Config{})

	workflow := services.NewWorkflowService(tickets, comments, cacheStore, nil, nil)
	queries := services.NewQueryService(tickets, comments, cacheStore)
	stats := services.NewStatsService(tickets, cacheStore)
	bulk := services.NewBulkService(tickets, cacheStore, 1, 4, logger)
	t.Cleanup(bulk.Shutdown)

	errorHandler := NewErrorHandler(logger)
	handler := NewTicketHandler(workflow, queries, stats, bulk, directory, errorHandler, logger)
	tm := auth.NewTokenManager("test-secret", time.Hour)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(mw.JWTMiddleware(tm))
		r.Route("/tickets", handler.RegisterRoutes)
	})

	return &ticketHandlerFixture{
		tickets:   tickets,
		comments:  comments,
		directory: directory,
		bulk:      bulk,
		router:    router,
		tm:        tm,
	}
}

func (f *ticketHandlerFixture) request(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	agent := &domain.UserRef{ID: uuid.New(), Username: "agent.smith", FullName: "Agent Smith"}
	token, err := f.tm.GenerateToken(agent)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()

	f.router.ServeHTTP(recorder, req)
	return recorder
}

func storedTicket(id int64) *domain.Ticket {
	now := time.Now().UTC()
	return &domain.Ticket{
		ID:        id,
		Title:     "Printer on fire",
		Priority:  domain.PriorityMedium,
		Status:    domain.StatusOpen,
		Category:  domain.CategoryHardware,
		CreatedBy: domain.UserRef{ID: uuid.New(), Username: "jdoe", FullName: "Jane Doe"},
		CreatedAt: now,
	}
}

func TestHandleGetTicket(t *testing.T) {
	f := newTicketHandlerFixture(t)
	f.tickets.On("FindByID", mock.Anything, int64(42)).Return(storedTicket(42), nil).Once()

	recorder := f.request(t, stdhttp.MethodGet, "/tickets/42", nil)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var dto TicketDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&dto))
	assert.Equal(t, int64(42), dto.ID)
	assert.Equal(t, "Printer on fire", dto.Title)
	assert.Equal(t, "OPEN", dto.Status)
	require.NotNil(t, dto.CreatedBy)
	assert.Equal(t, "Jane Doe", dto.CreatedBy.FullName)
	assert.Nil(t, dto.AssignedTo)
}

func TestHandleGetTicket_NotFound(t *testing.T) {
	f := newTicketHandlerFixture(t)
	f.tickets.On("FindByID", mock.Anything, int64(9999)).
		Return(nil, apperrors.ErrTicketNotFound).Once()

	recorder := f.request(t, stdhttp.MethodGet, "/tickets/9999", nil)

	require.Equal(t, stdhttp.StatusNotFound, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "TICKET_NOT_FOUND", response.Code)
}

func TestHandleGetTicket_InvalidID(t *testing.T) {
	f := newTicketHandlerFixture(t)

	recorder := f.request(t, stdhttp.MethodGet, "/tickets/abc", nil)

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	f.tickets.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestHandleGetTicket_Unauthorized(t *testing.T) {
	f := newTicketHandlerFixture(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/tickets/42", nil)
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
}

func TestHandleCreateTicket(t *testing.T) {
	f := newTicketHandlerFixture(t)

	saved := storedTicket(7)
	f.tickets.On("Save", mock.Anything, mock.AnythingOfType("*domain.Ticket")).Return(saved, nil).Once()
	f.comments.On("Save", mock.Anything, mock.AnythingOfType("*domain.Comment")).
		Return(&domain.Comment{ID: uuid.New(), TicketID: 7}, nil).Once()

	recorder := f.request(t, stdhttp.MethodPost, "/tickets", CreateTicketRequest{
		Title:    "Printer on fire",
		Category: "HARDWARE",
	})

	require.Equal(t, stdhttp.StatusCreated, recorder.Code)

	var dto TicketDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&dto))
	assert.Equal(t, int64(7), dto.ID)
	f.tickets.AssertExpectations(t)
	f.comments.AssertExpectations(t)
}

func TestHandleCreateTicket_MissingTitle(t *testing.T) {
	f := newTicketHandlerFixture(t)

	recorder := f.request(t, stdhttp.MethodPost, "/tickets", CreateTicketRequest{Category: "HARDWARE"})

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "VALIDATION_ERROR", response.Code)
	f.tickets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestHandleCreateTicket_MalformedBody(t *testing.T) {
	f := newTicketHandlerFixture(t)

	agent := &domain.UserRef{ID: uuid.New(), Username: "agent.smith", FullName: "Agent Smith"}
	token, err := f.tm.GenerateToken(agent)
	require.NoError(t, err)

	req := httptest.NewRequest(stdhttp.MethodPost, "/tickets", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
}

func TestHandleUpdateTicketStatus(t *testing.T) {
	f := newTicketHandlerFixture(t)

	existing := storedTicket(42)
	f.tickets.On("FindByID", mock.Anything, int64(42)).Return(existing, nil).Once()
	f.tickets.On("Save", mock.Anything, mock.AnythingOfType("*domain.Ticket")).
		Return(func() *domain.Ticket {
			resolved := storedTicket(42)
			resolved.Status = domain.StatusResolved
			return resolved
		}(), nil).Once()

	recorder := f.request(t, stdhttp.MethodPatch, "/tickets/42/status", UpdateStatusRequest{Status: "RESOLVED"})

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var dto TicketDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&dto))
	assert.Equal(t, "RESOLVED", dto.Status)
}

func TestHandleUpdateTicketStatus_Invalid(t *testing.T) {
	f := newTicketHandlerFixture(t)

	recorder := f.request(t, stdhttp.MethodPatch, "/tickets/42/status", UpdateStatusRequest{Status: "DONE"})

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	f.tickets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestHandleAssignTicket_ResolvesAssignee(t *testing.T) {
	f := newTicketHandlerFixture(t)

	assigneeID := uuid.New()
	assignee := &domain.UserRef{ID: assigneeID, Username: "tech", FullName: "Tech Person"}
	f.directory.On("FindByID", mock.Anything, assigneeID).Return(assignee, nil).Once()

	existing := storedTicket(42)
	assigned := storedTicket(42)
	assigned.AssignedTo = assignee
	f.tickets.On("FindByID", mock.Anything, int64(42)).Return(existing, nil).Once()
	f.tickets.On("Save", mock.Anything, mock.AnythingOfType("*domain.Ticket")).Return(assigned, nil).Once()

	recorder := f.request(t, stdhttp.MethodPatch, "/tickets/42/assignee", AssignTicketRequest{AssigneeID: &assigneeID})

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var dto TicketDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&dto))
	require.NotNil(t, dto.AssignedTo)
	assert.Equal(t, "Tech Person", dto.AssignedTo.FullName)
	f.directory.AssertExpectations(t)
}

func TestHandleEscalateTicket_MissingReason(t *testing.T) {
	f := newTicketHandlerFixture(t)

	recorder := f.request(t, stdhttp.MethodPost, "/tickets/42/escalate", EscalateTicketRequest{})

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "VALIDATION_ERROR", response.Code)
}

func TestHandleListByStatus_Invalid(t *testing.T) {
	f := newTicketHandlerFixture(t)

	recorder := f.request(t, stdhttp.MethodGet, "/tickets/status/BOGUS", nil)

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
}

func TestHandleListByStatus(t *testing.T) {
	f := newTicketHandlerFixture(t)

	f.tickets.On("ListByStatus", mock.Anything, domain.StatusOpen).
		Return([]*domain.Ticket{storedTicket(1), storedTicket(2)}, nil).Once()

	recorder := f.request(t, stdhttp.MethodGet, "/tickets/status/OPEN", nil)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response ListResponse[TicketDTO]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)
	assert.Len(t, response.Data, 2)
}

func TestHandleStatistics(t *testing.T) {
	f := newTicketHandlerFixture(t)

	f.tickets.On("Count", mock.Anything).Return(int64(10), nil).Once()
	f.tickets.On("CountByStatus", mock.Anything, domain.StatusOpen).Return(int64(4), nil).Once()
	f.tickets.On("CountByStatus", mock.Anything, domain.StatusInProgress).Return(int64(2), nil).Once()
	f.tickets.On("CountByStatus", mock.Anything, domain.StatusResolved).Return(int64(3), nil).Once()
	f.tickets.On("CountByStatus", mock.Anything, domain.StatusClosed).Return(int64(1), nil).Once()
	f.tickets.On("CountUnassigned", mock.Anything).Return(int64(5), nil).Once()
	f.tickets.On("CountEscalated", mock.Anything).Return(int64(1), nil).Once()

	recorder := f.request(t, stdhttp.MethodGet, "/tickets/statistics", nil)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var stats domain.TicketStatistics
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&stats))
	assert.Equal(t, int64(10), stats.TotalTickets)
	assert.Equal(t, int64(5), stats.UnassignedTickets)
}

func TestHandleBulkStatus(t *testing.T) {
	f := newTicketHandlerFixture(t)

	f.tickets.On("FindAllByID", mock.Anything, mock.Anything).Return([]*domain.Ticket{storedTicket(1)}, nil)
	f.tickets.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

	recorder := f.request(t, stdhttp.MethodPost, "/tickets/bulk/status", BulkStatusRequest{
		TicketIDs: []int64{1, 2, 3},
		Status:    "CLOSED",
	})

	require.Equal(t, stdhttp.StatusAccepted, recorder.Code)

	var response BulkAcceptedResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, 3, response.Queued)
}

func TestHandleBulkStatus_EmptyIDs(t *testing.T) {
	f := newTicketHandlerFixture(t)

	recorder := f.request(t, stdhttp.MethodPost, "/tickets/bulk/status", BulkStatusRequest{Status: "CLOSED"})

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
}

func TestHandleDeleteTicket(t *testing.T) {
	f := newTicketHandlerFixture(t)

	f.tickets.On("FindByID", mock.Anything, int64(42)).Return(storedTicket(42), nil).Once()
	f.comments.On("DeleteByTicket", mock.Anything, int64(42)).Return(nil).Once()
	f.tickets.On("Delete", mock.Anything, int64(42)).Return(nil).Once()

	recorder := f.request(t, stdhttp.MethodDelete, "/tickets/42", nil)

	require.Equal(t, stdhttp.StatusNoContent, recorder.Code)
	f.tickets.AssertExpectations(t)
	f.comments.AssertExpectations(t)
}

func TestHandleAddComment(t *testing.T) {
	f := newTicketHandlerFixture(t)

	f.tickets.On("FindByID", mock.Anything, int64(42)).Return(storedTicket(42), nil).Once()
	f.comments.On("Save", mock.Anything, mock.AnythingOfType("*domain.Comment")).
		Return(&domain.Comment{
			ID:        uuid.New(),
			TicketID:  42,
			Body:      "Looked at it, it is indeed on fire",
			Type:      domain.CommentUser,
			CreatedAt: time.Now().UTC(),
		}, nil).Once()

	recorder := f.request(t, stdhttp.MethodPost, "/tickets/42/comments", AddCommentRequest{
		Body: "Looked at it, it is indeed on fire",
	})

	require.Equal(t, stdhttp.StatusCreated, recorder.Code)

	var dto CommentDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&dto))
	assert.Equal(t, int64(42), dto.TicketID)
	assert.Equal(t, "Looked at it, it is indeed on fire", dto.Body)
}

func TestHandleListTickets_Paginated(t *testing.T) {
	f := newTicketHandlerFixture(t)

	f.tickets.On("FindWithFilters", mock.Anything, mock.MatchedBy(func(filter ports.TicketFilter) bool {
		return filter.Status != nil && *filter.Status == domain.StatusOpen && filter.Size == 10
	})).Return(&ports.TicketPage{
		Tickets:    []*domain.Ticket{storedTicket(1)},
		TotalCount: 1,
		Page:       0,
		Size:       10,
	}, nil).Once()

	recorder := f.request(t, stdhttp.MethodGet, "/tickets?status=OPEN&page=0&size=10", nil)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response PaginatedResponse[TicketDTO]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Len(t, response.Data, 1)
	assert.Equal(t, int64(1), response.Pagination.TotalCount)
	assert.False(t, response.Pagination.HasMore)
}
