package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rl1809/stock-count/internal/core/domain"
	"github.com/rl1809/stock-count/internal/core/service"
)

type HTTPHandler struct {
	countService *service.CountService
}

func NewHTTPHandler(countService *service.CountService) *HTTPHandler {
	return &HTTPHandler{countService: countService}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *HTTPHandler, authn *Authenticator, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(logger))

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api", Authenticate(authn))
	api.GET("/me/warehouses", h.AccessibleWarehouses)

	counts := api.Group("/inventory-counts")
	counts.GET("", h.ListCounts)
	counts.POST("", h.CreateCount)
	counts.GET("/:id", h.GetCount)
	counts.GET("/:id/items", h.ListItems)
	counts.POST("/:id/items", h.AddItem)
	counts.PUT("/:id/close", h.CloseCount)

	api.GET("/products/:id/quantity", h.PreviewQuantity)
	api.GET("/users/:id/warehouses", h.UserWarehouses)
	api.PUT("/users/:id/warehouses", h.AssignWarehouses)
	api.GET("/activity", h.RecentActivity)

	return r
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) AccessibleWarehouses(c *gin.Context) {
	actor, _ := actorFrom(c)
	warehouses, err := h.countService.AccessibleWarehouses(c.Request.Context(), actor)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWarehouseResponses(warehouses))
}

func (h *HTTPHandler) ListCounts(c *gin.Context) {
	actor, _ := actorFrom(c)

	var filter domain.CountFilter
	if raw := c.Query("warehouse_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			abortWithError(c, domain.NewValidation("warehouse_id must be an integer"))
			return
		}
		filter.WarehouseID = id
	}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseCountStatus(raw)
		if err != nil {
			abortWithError(c, err)
			return
		}
		filter.Status = status
	}

	details, err := h.countService.ListCounts(c.Request.Context(), actor, filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCountResponses(details))
}

func (h *HTTPHandler) CreateCount(c *gin.Context) {
	actor, _ := actorFrom(c)

	var req CreateCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, domain.NewValidation("invalid request body: %v", err))
		return
	}

	detail, err := h.countService.CreateCount(c.Request.Context(), actor, service.NewCount{
		Name:        req.Name,
		CutOffDate:  req.CutOffDate,
		WarehouseID: req.WarehouseID,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCountResponse(detail, false))
}

func (h *HTTPHandler) GetCount(c *gin.Context) {
	actor, _ := actorFrom(c)
	countID, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.countService.GetCountDetail(c.Request.Context(), actor, countID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCountResponse(detail, true))
}

func (h *HTTPHandler) ListItems(c *gin.Context) {
	actor, _ := actorFrom(c)
	countID, ok := pathID(c)
	if !ok {
		return
	}

	items, err := h.countService.ListItems(c.Request.Context(), actor, countID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponses(items))
}

func (h *HTTPHandler) AddItem(c *gin.Context) {
	actor, _ := actorFrom(c)
	countID, ok := pathID(c)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, domain.NewValidation("invalid request body: %v", err))
		return
	}

	item, err := h.countService.AddItem(c.Request.Context(), actor, countID, req.ProductID, req.PackagesCount)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(*item))
}

func (h *HTTPHandler) CloseCount(c *gin.Context) {
	actor, _ := actorFrom(c)
	countID, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.countService.CloseCount(c.Request.Context(), actor, countID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCountResponse(detail, false))
}

func (h *HTTPHandler) PreviewQuantity(c *gin.Context) {
	productID, ok := pathID(c)
	if !ok {
		return
	}
	packages, err := strconv.Atoi(c.Query("packages"))
	if err != nil {
		abortWithError(c, domain.NewValidation("packages must be an integer"))
		return
	}

	preview, err := h.countService.PreviewQuantity(c.Request.Context(), productID, packages)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toQuantityPreviewResponse(preview))
}

func (h *HTTPHandler) UserWarehouses(c *gin.Context) {
	actor, _ := actorFrom(c)
	userID, ok := pathID(c)
	if !ok {
		return
	}

	warehouses, err := h.countService.UserWarehouses(c.Request.Context(), actor, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWarehouseResponses(warehouses))
}

func (h *HTTPHandler) AssignWarehouses(c *gin.Context) {
	actor, _ := actorFrom(c)
	userID, ok := pathID(c)
	if !ok {
		return
	}

	var req AssignWarehousesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, domain.NewValidation("invalid request body: %v", err))
		return
	}

	warehouses, err := h.countService.AssignWarehouses(c.Request.Context(), actor, userID, req.WarehouseIDs)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWarehouseResponses(warehouses))
}

func (h *HTTPHandler) RecentActivity(c *gin.Context) {
	actor, _ := actorFrom(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, domain.NewValidation("limit must be an integer"))
			return
		}
		limit = n
	}

	events, err := h.countService.RecentActivity(c.Request.Context(), actor, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponses(events))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, domain.NewValidation("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}
