package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"order-saga/internal/order"
	"order-saga/internal/saga"
	"order-saga/internal/store"
)

// DefaultSagaTimeout bounds how long POST /orders waits for the saga
// outcome before giving up on the request (the saga itself keeps
// running).
const DefaultSagaTimeout = 30 * time.Second

func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

type OrderHandler struct {
	creator     OrderCreator
	orders      Orders
	sagaTimeout time.Duration
}

func RegisterOrderRoutes(r gin.IRouter, creator OrderCreator, orders Orders) {
	h := &OrderHandler{creator: creator, orders: orders, sagaTimeout: DefaultSagaTimeout}
	r.POST("/orders", h.PostOrders)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.GET("/orders/:id/status", h.GetOrderStatus)
	r.POST("/orders/:id/complete", h.CompleteOrder)
}

func (h *OrderHandler) PostOrders(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrInvalidJSON})
		return
	}
	if req.UserID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrMissingUser})
		return
	}
	if len(req.Lines) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrMissingLines})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.sagaTimeout)
	defer cancel()

	orderID, err := h.creator.CreateOrder(ctx, req.UserID, req.Lines)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: ErrTimeout})
		case errors.Is(err, saga.ErrProtocolViolation):
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrInternal, Reason: err.Error()})
		default:
			c.JSON(http.StatusConflict, ErrorResponse{Error: ErrRejected, Reason: err.Error()})
		}
		return
	}

	o, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrInternal})
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	state, err := h.orders.Status(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderStatusResponse{OrderID: id, State: string(state)})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrMissingUser})
		return
	}
	orders, err := h.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrInternal})
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orders.Complete(c.Request.Context(), id); err != nil {
		if errors.Is(err, order.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: ErrConflict, Reason: err.Error()})
			return
		}
		respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type ProductHandler struct {
	products Products
}

func RegisterProductRoutes(r gin.IRouter, products Products) {
	h := &ProductHandler{products: products}
	r.POST("/products", h.PostProducts)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/products/:id/inventory", h.PostInventory)
}

func (h *ProductHandler) PostProducts(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrInvalidJSON})
		return
	}
	p, err := h.products.CreateProduct(c.Request.Context(), req.Name, req.Price, req.Inventory)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrInvalidJSON, Reason: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrInternal})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) PostInventory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req AddInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrInvalidJSON})
		return
	}
	if err := h.products.AddInventory(c.Request.Context(), id, req.Quantity); err != nil {
		respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type CustomerHandler struct {
	customers Customers
}

func RegisterCustomerRoutes(r gin.IRouter, customers Customers) {
	h := &CustomerHandler{customers: customers}
	r.POST("/customers", h.PostCustomers)
	r.GET("/customers/:id", h.GetCustomer)
	r.POST("/customers/:id/balance", h.PostBalance)
}

func (h *CustomerHandler) PostCustomers(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrInvalidJSON})
		return
	}
	cust, err := h.customers.CreateCustomer(c.Request.Context(), req.Name, req.Balance)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrInvalidJSON, Reason: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cust, err := h.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *CustomerHandler) PostBalance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req AddBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrInvalidJSON})
		return
	}
	if err := h.customers.AddBalance(c.Request.Context(), id, req.Amount); err != nil {
		respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrInvalidID})
		return 0, false
	}
	return id, true
}

func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrNotFound})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrInternal, Reason: err.Error()})
}
