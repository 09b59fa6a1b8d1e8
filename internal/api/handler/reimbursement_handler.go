package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ers-app/reimbursement-api/internal/api/metrics"
	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
)

// ReimbursementHandler serves the /reimbursements resource.
type ReimbursementHandler struct {
	service ports.ReimbursementService
}

func NewReimbursementHandler(service ports.ReimbursementService) *ReimbursementHandler {
	return &ReimbursementHandler{service: service}
}

type reimbursementRequest struct {
	ID          int                      `json:"id"`
	Amount      float64                  `json:"amount"`
	Description string                   `json:"description"`
	Author      int                      `json:"author"`
	Type        domain.ReimbursementType `json:"type"`
}

type resolutionRequest struct {
	ID       int           `json:"id"`
	Status   domain.Status `json:"status"`
	Resolver int           `json:"resolver"`
}

// List handles GET /reimbursements (managers).
//
// @Summary      List all reimbursements
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Reimbursement
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /reimbursements [get]
func (h *ReimbursementHandler) List(c echo.Context) error {
	reimbs, err := h.service.GetAllReimbursements(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reimbs)
}

// Get handles GET /reimbursements/:id.
//
// @Summary      Get a reimbursement by id
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Reimbursement id"
// @Success      200  {object}  domain.Reimbursement
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /reimbursements/{id} [get]
func (h *ReimbursementHandler) Get(c echo.Context) error {
	reimb, err := h.service.GetReimbursementByID(c.Request().Context(), intParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reimb)
}

// Events handles GET /reimbursements/:id/events (managers).
//
// @Summary      Audit trail of a reimbursement
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Reimbursement id"
// @Success      200  {array}   domain.ReimbursementEvent
// @Failure      404  {object}  map[string]any
// @Router       /reimbursements/{id}/events [get]
func (h *ReimbursementHandler) Events(c echo.Context) error {
	events, err := h.service.ListReimbursementEvents(c.Request().Context(), intParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

// ByAuthor handles GET /reimbursements/myreimb/:authorId.
//
// @Summary      List the reimbursements of an author
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Param        authorId  path      int  true  "Author user id"
// @Success      200       {array}   domain.Reimbursement
// @Failure      404       {object}  map[string]any
// @Router       /reimbursements/myreimb/{authorId} [get]
func (h *ReimbursementHandler) ByAuthor(c echo.Context) error {
	reimbs, err := h.service.GetAllMyReimbursements(c.Request().Context(), intParam(c, "authorId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reimbs)
}

// ByType handles GET /reimbursements/filtertype/:type (managers).
//
// @Summary      Filter reimbursements by type
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      int  true  "1 lodging, 2 travel, 3 food, 4 other"
// @Success      200   {array}   domain.Reimbursement
// @Router       /reimbursements/filtertype/{type} [get]
func (h *ReimbursementHandler) ByType(c echo.Context) error {
	t := domain.ReimbursementType(intParam(c, "type"))
	reimbs, err := h.service.FilterReimbByType(c.Request().Context(), t)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reimbs)
}

// ByStatus handles GET /reimbursements/filterstatus/:status (managers).
//
// @Summary      Filter reimbursements by status
// @Tags         reimbursements
// @Produce      json
// @Security     BearerAuth
// @Param        status  path      int  true  "1 pending, 2 approved, 3 denied"
// @Success      200     {array}   domain.Reimbursement
// @Router       /reimbursements/filterstatus/{status} [get]
func (h *ReimbursementHandler) ByStatus(c echo.Context) error {
	s := domain.Status(intParam(c, "status"))
	reimbs, err := h.service.FilterReimbByStatus(c.Request().Context(), s)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reimbs)
}

// Create handles POST /reimbursements. The author defaults to the caller.
//
// @Summary      Submit a reimbursement
// @Tags         reimbursements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reimbursementRequest  true  "Reimbursement"
// @Success      201   {object}  domain.Reimbursement
// @Failure      400   {object}  map[string]any
// @Router       /reimbursements [post]
func (h *ReimbursementHandler) Create(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	var req reimbursementRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewError(domain.KindBadRequest, "invalid payload")
	}
	if req.Author == 0 {
		req.Author = p.ID
	}

	created, err := h.service.AddNewReimbursement(c.Request().Context(), req.toDomain())
	if err != nil {
		return err
	}
	metrics.ReimbursementsSubmittedTotal.WithLabelValues(created.Type.String()).Inc()
	return c.JSON(http.StatusCreated, created)
}

// Update handles PUT /reimbursements. Only the submitter may edit a
// reimbursement; the author defaults to the caller.
//
// @Summary      Update a pending reimbursement
// @Tags         reimbursements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reimbursementRequest  true  "Reimbursement with id"
// @Success      200   {boolean}  boolean
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /reimbursements [put]
func (h *ReimbursementHandler) Update(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	var req reimbursementRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewError(domain.KindBadRequest, "invalid payload")
	}

	ctx := c.Request().Context()
	current, err := h.service.GetReimbursementByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if current.Author != p.ID {
		return domain.NewError(domain.KindAuthorization, "only the submitter may edit reimbursement %d", req.ID)
	}
	if req.Author == 0 {
		req.Author = p.ID
	}

	updated, err := h.service.UpdateReimbursement(ctx, req.toDomain())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Resolve handles PUT /reimbursements/status (managers). The resolver
// defaults to the caller.
//
// @Summary      Approve or deny a reimbursement
// @Tags         reimbursements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      resolutionRequest  true  "Resolution"
// @Success      200   {boolean}  boolean
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /reimbursements/status [put]
func (h *ReimbursementHandler) Resolve(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}

	var req resolutionRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewError(domain.KindBadRequest, "invalid payload")
	}
	if req.Resolver == 0 {
		req.Resolver = p.ID
	}

	res := &domain.Resolution{ID: req.ID, Status: req.Status, Resolver: req.Resolver}
	resolved, err := h.service.SetReimbursementStatus(c.Request().Context(), res)
	if err != nil {
		return err
	}
	metrics.ReimbursementsResolvedTotal.WithLabelValues(res.Status.String()).Inc()
	return c.JSON(http.StatusOK, resolved)
}

func (r reimbursementRequest) toDomain() *domain.Reimbursement {
	return &domain.Reimbursement{
		ID:          r.ID,
		Amount:      r.Amount,
		Description: r.Description,
		Author:      r.Author,
		Type:        r.Type,
	}
}
