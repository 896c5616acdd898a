package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/lorrc/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

const maxTicketsPerPage = 100

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	workflow     ports.WorkflowService
	queries      ports.QueryService
	statistics   ports.StatisticsService
	bulk         ports.BulkService
	directory    ports.DirectoryRepository
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	workflow ports.WorkflowService,
	queries ports.QueryService,
	statistics ports.StatisticsService,
	bulk ports.BulkService,
	directory ports.DirectoryRepository,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		workflow:     workflow,
		queries:      queries,
		statistics:   statistics,
		bulk:         bulk,
		directory:    directory,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "ticket"),
	}
}

// Router sets up a new chi Router for all ticket-related routes.
func (h *TicketHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)

	r.Get("/statistics", h.HandleStatistics)

	// Scoped listings
	r.Get("/status/{status}", h.HandleListByStatus)
	r.Get("/priority/{priority}", h.HandleListByPriority)
	r.Get("/category/{category}", h.HandleListByCategory)
	r.Get("/unassigned", h.HandleListUnassigned)
	r.Get("/open", h.HandleListOpen)
	r.Get("/overdue", h.HandleListOverdue)
	r.Get("/escalated", h.HandleListEscalated)
	r.Get("/critical-open", h.HandleListCriticalOpen)

	// Bulk operations
	r.Post("/bulk/status", h.HandleBulkStatus)
	r.Post("/bulk/assign", h.HandleBulkAssign)

	// Routes for a specific ticket
	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Put("/", h.HandleUpdateTicket)
		r.Delete("/", h.HandleDeleteTicket)
		r.Patch("/status", h.HandleUpdateTicketStatus)
		r.Patch("/assignee", h.HandleAssignTicket)
		r.Post("/escalate", h.HandleEscalateTicket)
		r.Get("/comments", h.HandleListComments)
		r.Post("/comments", h.HandleAddComment)
	})
}

// --- Request/Response DTOs ---

// CreateTicketRequest defines the expected JSON body for creating a ticket
type CreateTicketRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	Category       string     `json:"category"`
	AssigneeID     *uuid.UUID `json:"assigneeId"`
	DueDate        *time.Time `json:"dueDate"`
	EquipmentID    *int64     `json:"equipmentId"`
	EstimatedHours *int32     `json:"estimatedHours"`
}

// UpdateTicketRequest defines the expected JSON body for a full update.
// Nil pointers leave the stored value untouched.
type UpdateTicketRequest struct {
	Title                *string    `json:"title"`
	Description          *string    `json:"description"`
	Priority             *string    `json:"priority"`
	Status               *string    `json:"status"`
	Category             *string    `json:"category"`
	AssigneeID           *uuid.UUID `json:"assigneeId"`
	DueDate              *time.Time `json:"dueDate"`
	Resolution           *string    `json:"resolution"`
	EstimatedHours       *int32     `json:"estimatedHours"`
	ActualHours          *int32     `json:"actualHours"`
	CustomerSatisfaction *int32     `json:"customerSatisfaction"`
}

// UpdateStatusRequest defines the expected JSON body for status updates
type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// AssignTicketRequest defines the expected JSON body for assigning a
// ticket. A null assigneeId unassigns it.
type AssignTicketRequest struct {
	AssigneeID *uuid.UUID `json:"assigneeId"`
}

// EscalateTicketRequest defines the expected JSON body for escalations
type EscalateTicketRequest struct {
	Reason string `json:"reason"`
}

// AddCommentRequest defines the expected JSON body for adding a comment
type AddCommentRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"isInternal"`
}

// BulkStatusRequest defines the expected JSON body for bulk status updates
type BulkStatusRequest struct {
	TicketIDs []int64 `json:"ticketIds"`
	Status    string  `json:"status"`
}

// BulkAssignRequest defines the expected JSON body for bulk assignments
type BulkAssignRequest struct {
	TicketIDs  []int64    `json:"ticketIds"`
	AssigneeID *uuid.UUID `json:"assigneeId"`
}

// UserRefDTO is the JSON shape of a user reference.
type UserRefDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

func toUserRefDTO(user *domain.UserRef) *UserRefDTO {
	if user == nil {
		return nil
	}
	return &UserRefDTO{ID: user.ID.String(), Username: user.Username, FullName: user.FullName}
}

// TicketDTO defines the JSON response for tickets.
type TicketDTO struct {
	ID                   int64       `json:"id"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Priority             string      `json:"priority"`
	Status               string      `json:"status"`
	Category             string      `json:"category"`
	CreatedBy            *UserRefDTO `json:"createdBy"`
	AssignedTo           *UserRefDTO `json:"assignedTo"`
	CreatedAt            string      `json:"createdAt"`
	UpdatedAt            *string     `json:"updatedAt"`
	ResolvedAt           *string     `json:"resolvedAt"`
	DueDate              *string     `json:"dueDate"`
	Resolution           string      `json:"resolution,omitempty"`
	EstimatedHours       *int32      `json:"estimatedHours,omitempty"`
	ActualHours          *int32      `json:"actualHours,omitempty"`
	CustomerSatisfaction *int32      `json:"customerSatisfaction,omitempty"`
	EquipmentID          *int64      `json:"equipmentId,omitempty"`
	IsEscalated          bool        `json:"isEscalated"`
	EscalationReason     string      `json:"escalationReason,omitempty"`
	IsOverdue            bool        `json:"isOverdue"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := t.Format(time.RFC3339)
	return &value
}

func toTicketDTO(ticket *domain.Ticket) TicketDTO {
	return TicketDTO{
		ID:                   ticket.ID,
		Title:                ticket.Title,
		Description:          ticket.Description,
		Priority:             string(ticket.Priority),
		Status:               string(ticket.Status),
		Category:             string(ticket.Category),
		CreatedBy:            toUserRefDTO(&ticket.CreatedBy),
		AssignedTo:           toUserRefDTO(ticket.AssignedTo),
		CreatedAt:            ticket.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            formatTime(ticket.UpdatedAt),
		ResolvedAt:           formatTime(ticket.ResolvedAt),
		DueDate:              formatTime(ticket.DueDate),
		Resolution:           ticket.Resolution,
		EstimatedHours:       ticket.EstimatedHours,
		ActualHours:          ticket.ActualHours,
		CustomerSatisfaction: ticket.CustomerSatisfaction,
		EquipmentID:          ticket.EquipmentID,
		IsEscalated:          ticket.IsEscalated,
		EscalationReason:     ticket.EscalationReason,
		IsOverdue:            ticket.IsOverdue(time.Now().UTC()),
	}
}

func toTicketDTOs(tickets []*domain.Ticket) []TicketDTO {
	response := make([]TicketDTO, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, toTicketDTO(ticket))
	}
	return response
}

// CommentDTO defines the JSON response for ticket comments.
type CommentDTO struct {
	ID         string      `json:"id"`
	TicketID   int64       `json:"ticketId"`
	Author     *UserRefDTO `json:"author"`
	Body       string      `json:"body"`
	IsInternal bool        `json:"isInternal"`
	Type       string      `json:"type"`
	CreatedAt  string      `json:"createdAt"`
}

func toCommentDTO(comment *domain.Comment) CommentDTO {
	return CommentDTO{
		ID:         comment.ID.String(),
		TicketID:   comment.TicketID,
		Author:     toUserRefDTO(comment.Author),
		Body:       comment.Body,
		IsInternal: comment.IsInternal,
		Type:       string(comment.Type),
		CreatedAt:  comment.CreatedAt.Format(time.RFC3339),
	}
}

func toCommentDTOs(comments []*domain.Comment) []CommentDTO {
	response := make([]CommentDTO, 0, len(comments))
	for _, comment := range comments {
		response = append(response, toCommentDTO(comment))
	}
	return response
}

// BulkAcceptedResponse acknowledges an enqueued batch.
type BulkAcceptedResponse struct {
	Queued int    `json:"queued"`
	Status string `json:"status"`
}

// --- Helpers ---

func (h *TicketHandler) caller(w http.ResponseWriter, r *http.Request) (*domain.UserRef, bool) {
	user, ok := mw.UserFromContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return nil, false
	}
	return user, true
}

func (h *TicketHandler) parseTicketID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "ticketID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewBadRequestError(err, "ticket id must be a positive integer")
	}
	return id, nil
}

func decodeJSON[T any](r *http.Request) (*T, error) {
	var req T
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return nil, apperrors.NewBadRequestError(err, "invalid JSON body")
	}
	return &req, nil
}

// resolveAssignee turns an optional assignee id into a user reference.
func (h *TicketHandler) resolveAssignee(r *http.Request, assigneeID *uuid.UUID) (*domain.UserRef, error) {
	if assigneeID == nil {
		return nil, nil
	}
	return h.directory.FindByID(r.Context(), *assigneeID)
}

// --- Handlers ---

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	creator, ok := h.caller(w, r)
	if !ok {
		return
	}

	req, err := decodeJSON[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	assignee, err := h.resolveAssignee(r, req.AssigneeID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateTicketParams{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.TicketPriority(req.Priority),
		Category:       domain.TicketCategory(req.Category),
		Creator:        creator,
		AssignedTo:     assignee,
		DueDate:        req.DueDate,
		EquipmentID:    req.EquipmentID,
		EstimatedHours: req.EstimatedHours,
	}

	ticket, err := h.workflow.Create(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"user_id", creator.ID,
	)

	WriteCreated(w, toTicketDTO(ticket))
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.queries.GetTicket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleListTickets handles GET /tickets with optional filters
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ports.TicketFilter{
		SortBy:  query.Get("sortBy"),
		SortDir: query.Get("sortDir"),
	}

	if search := query.Get("search"); search != "" {
		filter.Search = &search
	}
	if status := query.Get("status"); status != "" {
		value := domain.TicketStatus(status)
		filter.Status = &value
	}
	if priority := query.Get("priority"); priority != "" {
		value := domain.TicketPriority(priority)
		filter.Priority = &value
	}
	if category := query.Get("category"); category != "" {
		value := domain.TicketCategory(category)
		filter.Category = &value
	}
	if createdBy := query.Get("createdBy"); createdBy != "" {
		id, err := uuid.Parse(createdBy)
		if err != nil {
			h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "createdBy must be a valid UUID"))
			return
		}
		filter.CreatedBy = &id
	}
	if assignedTo := query.Get("assignedTo"); assignedTo != "" {
		id, err := uuid.Parse(assignedTo)
		if err != nil {
			h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "assignedTo must be a valid UUID"))
			return
		}
		filter.AssignedTo = &id
	}
	if equipment := query.Get("equipmentId"); equipment != "" {
		id, err := strconv.ParseInt(equipment, 10, 64)
		if err != nil {
			h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "equipmentId must be an integer"))
			return
		}
		filter.EquipmentID = &id
	}

	if page := query.Get("page"); page != "" {
		if value, err := strconv.Atoi(page); err == nil && value >= 0 {
			filter.Page = value
		}
	}
	filter.Size = 20
	if size := query.Get("size"); size != "" {
		if value, err := strconv.Atoi(size); err == nil && value > 0 {
			filter.Size = value
		}
	}
	if filter.Size > maxTicketsPerPage {
		filter.Size = maxTicketsPerPage
	}

	page, err := h.queries.ListTickets(r.Context(), filter)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginated(w, toTicketDTOs(page.Tickets), page.Page, page.Size, page.TotalCount)
}

// HandleUpdateTicket handles PUT /tickets/{ticketID}
func (h *TicketHandler) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := decodeJSON[UpdateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	existing, err := h.queries.GetTicket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	// Work on a copy; the fetched record may be shared via the cache.
	updated := *existing
	if req.Title != nil {
		updated.Title = *req.Title
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Priority != nil {
		updated.Priority = domain.TicketPriority(*req.Priority)
		if !updated.Priority.IsValid() {
			h.errorHandler.Handle(w, r, apperrors.ErrInvalidPriority)
			return
		}
	}
	if req.Status != nil {
		updated.Status = domain.TicketStatus(*req.Status)
		if !updated.Status.IsValid() {
			h.errorHandler.Handle(w, r, apperrors.ErrInvalidStatus)
			return
		}
	}
	if req.Category != nil {
		updated.Category = domain.TicketCategory(*req.Category)
	}
	if req.AssigneeID != nil {
		assignee, err := h.resolveAssignee(r, req.AssigneeID)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		updated.AssignedTo = assignee
	}
	if req.DueDate != nil {
		updated.DueDate = req.DueDate
	}
	if req.Resolution != nil {
		updated.Resolution = *req.Resolution
	}
	if req.EstimatedHours != nil {
		updated.EstimatedHours = req.EstimatedHours
	}
	if req.ActualHours != nil {
		updated.ActualHours = req.ActualHours
	}
	if req.CustomerSatisfaction != nil {
		updated.CustomerSatisfaction = req.CustomerSatisfaction
	}

	ticket, err := h.workflow.Update(r.Context(), &updated)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleDeleteTicket handles DELETE /tickets/{ticketID}
func (h *TicketHandler) HandleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.workflow.Delete(r.Context(), ticketID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket deleted",
		"ticket_id", ticketID,
		"user_id", caller.ID,
	)

	WriteNoContent(w)
}

// HandleUpdateTicketStatus handles PATCH /tickets/{ticketID}/status
func (h *TicketHandler) HandleUpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := decodeJSON[UpdateStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.workflow.ChangeStatus(r.Context(), ticketID, domain.TicketStatus(req.Status), req.Comment)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleAssignTicket handles PATCH /tickets/{ticketID}/assignee
func (h *TicketHandler) HandleAssignTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := decodeJSON[AssignTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	assignee, err := h.resolveAssignee(r, req.AssigneeID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.workflow.Assign(r.Context(), ticketID, assignee)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleEscalateTicket handles POST /tickets/{ticketID}/escalate
func (h *TicketHandler) HandleEscalateTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := decodeJSON[EscalateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if req.Reason == "" {
		h.errorHandler.Handle(w, r, apperrors.ErrReasonRequired)
		return
	}

	ticket, err := h.workflow.Escalate(r.Context(), ticketID, req.Reason)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleListComments handles GET /tickets/{ticketID}/comments
func (h *TicketHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comments, err := h.queries.GetComments(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toCommentDTOs(comments))
}

// HandleAddComment handles POST /tickets/{ticketID}/comments
func (h *TicketHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	author, ok := h.caller(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := decodeJSON[AddCommentRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comment, err := h.workflow.AddComment(r.Context(), ticketID, author, req.Body, req.IsInternal)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, toCommentDTO(comment))
}

// HandleStatistics handles GET /tickets/statistics
func (h *TicketHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statistics.Snapshot(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// --- Scoped listings ---

func (h *TicketHandler) writeTicketList(w http.ResponseWriter, r *http.Request, tickets []*domain.Ticket, err error) {
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteList(w, toTicketDTOs(tickets))
}

// HandleListByStatus handles GET /tickets/status/{status}
func (h *TicketHandler) HandleListByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.TicketStatus(chi.URLParam(r, "status"))
	if !status.IsValid() {
		h.errorHandler.Handle(w, r, apperrors.ErrInvalidStatus)
		return
	}

	tickets, err := h.queries.ListByStatus(r.Context(), status)
	h.writeTicketList(w, r, tickets, err)
}

// HandleListByPriority handles GET /tickets/priority/{priority}
func (h *TicketHandler) HandleListByPriority(w http.ResponseWriter, r *http.Request) {
	priority := domain.TicketPriority(chi.URLParam(r, "priority"))
	if !priority.IsValid() {
		h.errorHandler.Handle(w, r, apperrors.ErrInvalidPriority)
		return
	}

	tickets, err := h.queries.ListByPriority(r.Context(), priority)
	h.writeTicketList(w, r, tickets, err)
}

// HandleListByCategory handles GET /tickets/category/{category}
func (h *TicketHandler) HandleListByCategory(w http.ResponseWriter, r *http.Request) {
	category := domain.TicketCategory(chi.URLParam(r, "category"))
	if !category.IsValid() {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(nil, "unknown ticket category"))
		return
	}

	tickets, err := h.queries.ListByCategory(r.Context(), category)
	h.writeTicketList(w, r, tickets, err)
}

// HandleListUnassigned handles GET /tickets/unassigned
func (h *TicketHandler) HandleListUnassigned(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.queries.ListUnassigned(r.Context())
	h.writeTicketList(w, r, tickets, err)
}

// HandleListOpen handles GET /tickets/open
func (h *TicketHandler) HandleListOpen(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.queries.ListOpen(r.Context())
	h.writeTicketList(w, r, tickets, err)
}

// HandleListOverdue handles GET /tickets/overdue
func (h *TicketHandler) HandleListOverdue(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.queries.ListOverdue(r.Context())
	h.writeTicketList(w, r, tickets, err)
}

// HandleListEscalated handles GET /tickets/escalated
func (h *TicketHandler) HandleListEscalated(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.queries.ListEscalated(r.Context())
	h.writeTicketList(w, r, tickets, err)
}

// HandleListCriticalOpen handles GET /tickets/critical-open
func (h *TicketHandler) HandleListCriticalOpen(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.queries.ListCriticalOpen(r.Context())
	h.writeTicketList(w, r, tickets, err)
}

// --- Bulk operations ---

// HandleBulkStatus handles POST /tickets/bulk/status
func (h *TicketHandler) HandleBulkStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	req, err := decodeJSON[BulkStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if len(req.TicketIDs) == 0 {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(nil, "ticketIds must not be empty"))
		return
	}

	if _, err := h.bulk.SubmitStatusUpdate(req.TicketIDs, domain.TicketStatus(req.Status)); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("bulk status update queued",
		"count", len(req.TicketIDs),
		"status", req.Status,
		"user_id", caller.ID,
	)

	WriteAccepted(w, BulkAcceptedResponse{Queued: len(req.TicketIDs), Status: "queued"})
}

// HandleBulkAssign handles POST /tickets/bulk/assign
func (h *TicketHandler) HandleBulkAssign(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	req, err := decodeJSON[BulkAssignRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if len(req.TicketIDs) == 0 {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(nil, "ticketIds must not be empty"))
		return
	}

	assignee, err := h.resolveAssignee(r, req.AssigneeID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if _, err := h.bulk.SubmitAssign(req.TicketIDs, assignee); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("bulk assignment queued",
		"count", len(req.TicketIDs),
		"user_id", caller.ID,
	)

	WriteAccepted(w, BulkAcceptedResponse{Queued: len(req.TicketIDs), Status: "queued"})
}
