package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"vecar-shop/internal/cart"
	"vecar-shop/internal/catalog"
	"vecar-shop/internal/models"
	"vecar-shop/internal/pricing"
	"vecar-shop/internal/service"
	"vecar-shop/internal/store"
	"vecar-shop/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog *catalog.Service
	cart    *cart.Reconciler
	orders  *service.OrderService
	users   *service.UserService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalogService *catalog.Service,
	reconciler *cart.Reconciler,
	orderService *service.OrderService,
	userService *service.UserService,
) *Handler {
	return &Handler{
		catalog: catalogService,
		cart:    reconciler,
		orders:  orderService,
		users:   userService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/new", h.listNewProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/products", h.createProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)

		v1.GET("/cart", h.getCart)
		v1.GET("/cart/count", h.getCartCount)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:productId", h.updateCartItem)
		v1.DELETE("/cart/items/:productId", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)
		v1.POST("/cart/merge", h.mergeCart)

		v1.POST("/orders", h.placeOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.PUT("/orders/:id/status", h.updateOrderStatus)

		v1.POST("/users/register", h.register)
		v1.POST("/users/login", h.login)
		v1.GET("/users", h.listUsers)
		v1.PUT("/users/:id", h.updateUser)
		v1.DELETE("/users/:id", h.deleteUser)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// identity resolves the cart owner from the request. Authenticated requests
// carry X-User-ID, guest requests carry X-Guest-ID; query parameters are
// accepted as a fallback for clients that cannot set headers.
func identity(c *gin.Context) cart.Identity {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		userID = c.Query("userId")
	}
	guestID := c.GetHeader("X-Guest-ID")
	if guestID == "" {
		guestID = c.Query("guestId")
	}
	return cart.Identity{UserID: userID, GuestID: guestID}
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cart.ErrNoIdentity),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrNegativeQuantity),
		errors.Is(err, catalog.ErrUnknownCategory),
		errors.Is(err, pricing.ErrNonPositivePrice),
		errors.Is(err, pricing.ErrDiscountedPrice),
		errors.Is(err, pricing.ErrPromotionName),
		errors.Is(err, pricing.ErrPromotionWindow),
		errors.Is(err, pricing.ErrMissingProductInfo),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrInvalidDelivery),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrMissingCredentials):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// listProducts handles catalog listing with optional search and category
// filters
func (h *Handler) listProducts(c *gin.Context) {
	q := catalog.Query{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// listNewProducts handles the recently added products listing
func (h *Handler) listNewProducts(c *gin.Context) {
	products, err := h.catalog.NewProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProduct handles get product by ID
func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// createProduct handles product creation
func (h *Handler) createProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.catalog.CreateProduct(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// updateProduct handles product updates
func (h *Handler) updateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	product.ID = c.Param("id")

	if err := h.catalog.UpdateProduct(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// deleteProduct handles product deletion
func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// getCart returns the cart contents, item count and effective total for the
// requesting identity
func (h *Handler) getCart(c *gin.Context) {
	id := identity(c)

	items, err := h.cart.Load(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": count,
		"total": h.cart.Total(items, id),
	})
}

// getCartCount returns only the summed quantity, for lightweight badge
// refreshes
func (h *Handler) getCartCount(c *gin.Context) {
	count, err := h.cart.ItemCount(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

type addCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// addCartItem adds a product to the cart, defaulting to a single unit
func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.cart.AddItem(c.Request.Context(), identity(c), *product, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// updateCartItem replaces the quantity of a cart line; zero removes it
func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	err := h.cart.UpdateQuantity(c.Request.Context(), identity(c), c.Param("productId"), *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// removeCartItem removes a cart line
func (h *Handler) removeCartItem(c *gin.Context) {
	err := h.cart.RemoveItem(c.Request.Context(), identity(c), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// clearCart empties the cart
func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), identity(c)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type mergeCartRequest struct {
	GuestID string `json:"guestId" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
}

// mergeCart folds a guest cart into the user's server cart
func (h *Handler) mergeCart(c *gin.Context) {
	var req mergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.cart.MergeGuestCart(c.Request.Context(), req.GuestID, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// placeOrder handles checkout
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// listOrders lists orders, optionally scoped to one user
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type updateOrderStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

// updateOrderStatus moves an order through its status transitions
func (h *Handler) updateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), orderID, req.Status, req.PaymentStatus)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// register handles user registration
func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// login handles user login. If the request also carries a guest id, the guest
// cart is merged into the user's cart as part of the login.
func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	guestID := c.GetHeader("X-Guest-ID")
	if guestID == "" {
		guestID = c.Query("guestId")
	}

	user, err := h.users.Login(c.Request.Context(), req.Username, req.Password, guestID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// listUsers handles the admin user listing
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

type updateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// updateUser handles user updates
func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), c.Param("id"), req.Username, req.Password, req.IsAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// deleteUser handles user deletion
func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.users.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
