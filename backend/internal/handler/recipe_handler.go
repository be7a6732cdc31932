package handler

import (
	"errors"
	"net/http"

	response "inventory-app/backend/internal/infra/common"
	appLogger "inventory-app/backend/internal/infra/logger"
	recipesvc "inventory-app/backend/internal/service/recipe"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecipeHandler 暴露菜谱接口。
type RecipeHandler struct {
	service *recipesvc.Service
	logger  *zap.SugaredLogger
}

// NewRecipeHandler 构造菜谱 handler。
func NewRecipeHandler(service *recipesvc.Service) *RecipeHandler {
	return &RecipeHandler{service: service, logger: appLogger.S().With("component", "recipe.handler")}
}

func (h *RecipeHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	response.Success(c, http.StatusOK, item, nil)
}

func (h *RecipeHandler) GetByName(c *gin.Context) {
	item, err := h.service.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, "get_by_name", err)
		return
	}
	response.Success(c, http.StatusOK, item, nil)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var req recipesvc.CreateParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	response.Created(c, item, nil)
}

func (h *RecipeHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	var req recipesvc.UpdateParams
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	response.Success(c, http.StatusOK, item, nil)
}

// Use 制作一次菜谱。
func (h *RecipeHandler) Use(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	item, err := h.service.Use(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "use", err)
		return
	}
	response.Success(c, http.StatusOK, item, nil)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete", err)
		return
	}
	response.NoContent(c)
}

func (h *RecipeHandler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, recipesvc.ErrRecipeNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound, err.Error(), nil)
	case errors.Is(err, recipesvc.ErrDuplicateName):
		response.Fail(c, http.StatusConflict, response.ErrConflict, err.Error(), gin.H{"field": "recipeName"})
	case errors.Is(err, recipesvc.ErrInvalidInput), errors.Is(err, recipesvc.ErrUnknownIngredient):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, err.Error(), nil)
	case errors.Is(err, recipesvc.ErrInsufficientStock):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientStock, err.Error(), nil)
	default:
		h.logger.Errorw("recipe request failed", "operation", op, "error", err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "recipe request failed", nil)
	}
}
