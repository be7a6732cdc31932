package handler

import (
	"errors"
	"net/http"

	response "inventory-app/backend/internal/infra/common"
	appLogger "inventory-app/backend/internal/infra/logger"
	ingredientsvc "inventory-app/backend/internal/service/ingredient"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// IngredientHandler 暴露原料库存接口。
type IngredientHandler struct {
	service *ingredientsvc.Service
	logger  *zap.SugaredLogger
}

// NewIngredientHandler 构造原料 handler。
func NewIngredientHandler(service *ingredientsvc.Service) *IngredientHandler {
	return &IngredientHandler{service: service, logger: appLogger.S().With("component", "ingredient.handler")}
}

// ingredientRequest 与实体 JSON 结构保持一致，前端可直接回传读取到的对象。
type ingredientRequest struct {
	ProductName     string `json:"productName" binding:"required,max=255"`
	QuantityDetails struct {
		CurrentQuantity  float64 `json:"currentQuantity" binding:"gte=0"`
		MaxQuantityLimit float64 `json:"maxQuantityLimit" binding:"gte=0"`
		AlertLowQuantity float64 `json:"alertLowQuantity" binding:"gte=0"`
	} `json:"quantityDetails"`
	UnitDetails struct {
		PricePerUnit      decimal.Decimal `json:"pricePerUnit"`
		UnitOfMeasurement string          `json:"unitOfMeasurement" binding:"required,max=32"`
	} `json:"unitDetails"`
}

func (r ingredientRequest) params() ingredientsvc.Params {
	return ingredientsvc.Params{
		ProductName:       r.ProductName,
		CurrentQuantity:   r.QuantityDetails.CurrentQuantity,
		MaxQuantityLimit:  r.QuantityDetails.MaxQuantityLimit,
		AlertLowQuantity:  r.QuantityDetails.AlertLowQuantity,
		PricePerUnit:      r.UnitDetails.PricePerUnit,
		UnitOfMeasurement: r.UnitDetails.UnitOfMeasurement,
	}
}

type consumeRequest struct {
	Amount float64 `json:"amount" binding:"gt=0"`
}

func (h *IngredientHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

func (h *IngredientHandler) Get(c *gin.Context) {
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

func (h *IngredientHandler) GetByName(c *gin.Context) {
	item, err := h.service.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, "get_by_name", err)
		return
	}
	response.Success(c, http.StatusOK, item, nil)
}

func (h *IngredientHandler) Create(c *gin.Context) {
	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	item, err := h.service.Create(c.Request.Context(), req.params())
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	response.Created(c, item, nil)
}

func (h *IngredientHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req.params())
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	response.Success(c, http.StatusOK, item, nil)
}

// Consume 手动扣减库存。
func (h *IngredientHandler) Consume(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailBinding(c, err)
		return
	}
	item, err := h.service.Consume(c.Request.Context(), id, req.Amount)
	if err != nil {
		h.fail(c, "consume", err)
		return
	}
	response.Success(c, http.StatusOK, item, nil)
}

func (h *IngredientHandler) Delete(c *gin.Context) {
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

func (h *IngredientHandler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ingredientsvc.ErrIngredientNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound, err.Error(), nil)
	case errors.Is(err, ingredientsvc.ErrDuplicateName):
		response.Fail(c, http.StatusConflict, response.ErrConflict, err.Error(), gin.H{"field": "productName"})
	case errors.Is(err, ingredientsvc.ErrInvalidInput):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, err.Error(), nil)
	case errors.Is(err, ingredientsvc.ErrInsufficientStock):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientStock, err.Error(), nil)
	default:
		h.logger.Errorw("ingredient request failed", "operation", op, "error", err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "ingredient request failed", nil)
	}
}
