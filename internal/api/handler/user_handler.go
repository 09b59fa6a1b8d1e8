package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/ports"
	"github.com/ers-app/reimbursement-api/internal/core/validation"
)

// UserHandler serves the admin-only /users resource.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /users. Without a query string it lists every user;
// otherwise it looks one user up by the first query key.
//
// @Summary      List users or find one by attribute
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  query     string  false  "any user attribute except password"
// @Success      200       {array}   domain.User
// @Failure      400       {object}  map[string]any
// @Failure      404       {object}  map[string]any
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if validation.IsEmptyObject(c.QueryParams()) {
		users, err := h.service.GetAllUsers(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, users)
	}

	user, err := h.service.GetUserByUniqueKey(ctx, orderedQuery(c.Request().URL.RawQuery))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Get handles GET /users/:id.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.GetUserByID(c.Request().Context(), intParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Create handles POST /users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.User  true  "New user"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var user domain.User
	if err := c.Bind(&user); err != nil {
		return domain.NewError(domain.KindBadRequest, "invalid payload")
	}

	created, err := h.service.AddNewUser(c.Request().Context(), &user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// Update handles PUT /users.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.User  true  "User with id"
// @Success      200   {boolean}  boolean
// @Failure      400   {object}  map[string]any
// @Router       /users [put]
func (h *UserHandler) Update(c echo.Context) error {
	var user domain.User
	if err := c.Bind(&user); err != nil {
		return domain.NewError(domain.KindBadRequest, "invalid payload")
	}

	updated, err := h.service.UpdateUser(c.Request().Context(), &user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {boolean}  boolean
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	deleted, err := h.service.DeleteUserByID(c.Request().Context(), intParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deleted)
}

// orderedQuery splits a raw query string preserving the order of its keys,
// which url.Values does not.
func orderedQuery(raw string) []ports.QueryField {
	var fields []ports.QueryField
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			val = v
		}
		fields = append(fields, ports.QueryField{Key: key, Value: val})
	}
	return fields
}
