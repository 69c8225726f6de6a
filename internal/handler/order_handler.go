package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/middleware"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/response"
	"github.com/patshala/patshala-backend/internal/service"
	"github.com/patshala/patshala-backend/internal/validator"
)

// OrderHandler handles order submission (student) and review (admin).
type OrderHandler struct {
	orderService *service.OrderService
	batchService *service.BatchService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *service.OrderService, batchService *service.BatchService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		batchService: batchService,
	}
}

// CreateOrder godoc
// POST /api/v1/student/orders
// Submits payment proof for a batch. The order starts in pending state.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateOrderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	// The batch must exist and be published before accepting money for it.
	if _, err := h.batchService.Get(c.Request.Context(), req.BatchID); err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrBatchNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"order": order})
}

// ListOwnOrders godoc
// GET /api/v1/student/orders
// Returns the caller's orders, newest first.
func (h *OrderHandler) ListOwnOrders(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	orders, err := h.orderService.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}

	response.Success(c, http.StatusOK, gin.H{"orders": orders})
}

// ListOrders godoc
// GET /api/v1/admin/orders?status=&batch_id=&page=&per_page=
// Paginated order listing for review.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var status *model.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := model.OrderStatus(raw)
		if s != model.OrderStatusPending && s != model.OrderStatusApproved && s != model.OrderStatusRejected {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		status = &s
	}

	var batchID *uuid.UUID
	if raw := c.Query("batch_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		batchID = &id
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	orders, total, err := h.orderService.List(c.Request.Context(), status, batchID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"orders": orders}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// GetOrder godoc
// GET /api/v1/admin/orders/:order_id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrOrderNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

// ApproveOrder godoc
// POST /api/v1/admin/orders/:order_id/approve
// Issues a pre-used enrollment token and enrolls the student. The result
// reports exactly how far the workflow got; partial progress is never
// rolled back, so the admin can retry the failed step.
func (h *OrderHandler) ApproveOrder(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ApproveOrderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result := h.orderService.Approve(c.Request.Context(), orderID, claims.UserID, req.Comment, req.ExpiresAt)
	if !result.Success && result.FailedStep == "fetch" {
		response.Fail(c, http.StatusNotFound, response.ErrOrderNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// RejectOrder godoc
// POST /api/v1/admin/orders/:order_id/reject
func (h *OrderHandler) RejectOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.RejectOrderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result := h.orderService.Reject(c.Request.Context(), orderID, req.Comment)
	if !result.Success && result.FailedStep == "fetch" {
		response.Fail(c, http.StatusNotFound, response.ErrOrderNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
