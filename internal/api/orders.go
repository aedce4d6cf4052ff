package api

import (
	"bookcourier/internal/domain"     // Importing domain models
	"bookcourier/internal/middleware" // Caller lookup and metrics
	"errors"                          // Error inspection
	"fmt"                             // Error messages
	"net/http"                        // HTTP status codes
	"strings"                         // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Order event types published on the websocket feed
const (
	EventOrderCreated = "order.created"
	EventOrderStatus  = "order.status"
	EventOrderPaid    = "order.paid"
)

// CreateOrderRequest is the body of POST /orders
type CreateOrderRequest struct {
	BookID    string `json:"bookId" binding:"required"`  // Book to order
	UserName  string `json:"userName"`                   // Customer name, defaults to the profile name
	UserEmail string `json:"userEmail"`                  // Ignored, the caller's email is used
	Phone     string `json:"phone" binding:"required"`   // Shipping phone
	Address   string `json:"address" binding:"required"` // Shipping address
}

// UpdateStatusRequest is the body of PATCH /orders/:id/status
type UpdateStatusRequest struct {
	OrderStatus domain.OrderStatus `json:"orderStatus" binding:"required"` // Target status
}

// CreateOrderHandler places a pending, unpaid order for one book
func CreateOrderHandler(db *gorm.DB, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bookId, phone and address are required"})
			return
		}
		book, ok := findBook(c, db, req.BookID)
		if !ok {
			return
		}
		if book.Status != domain.BookPublished {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Book is not available"}) // Unpublished books cannot be ordered
			return
		}
		user := middleware.CurrentUser(c)
		name := strings.TrimSpace(req.UserName)
		if name == "" {
			name = user.Name
		}
		order := domain.Order{
			BookID:        book.ID,           // Ordered book
			BookTitle:     book.Title,        // Title snapshot
			BookImage:     book.Image,        // Cover snapshot
			Price:         book.Price,        // Price snapshot
			SellerEmail:   book.Seller.Email, // Listing librarian
			UserName:      name,              // Customer name
			UserEmail:     user.Email,        // Customer email from the token
			Phone:         strings.TrimSpace(req.Phone),
			Address:       strings.TrimSpace(req.Address),
			OrderStatus:   domain.OrderPending,  // New orders wait for shipping
			PaymentStatus: domain.PaymentUnpaid, // and for payment
		}
		if err := db.Create(&order).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user":    user.Email,  // Customer
				"book_id": book.ID,     // Book
				"error":   err.Error(), // Error message
			}).Error("Place order failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
			return
		}
		logrus.WithFields(logrus.Fields{"order_id": order.ID, "user": user.Email, "book_id": book.ID}).Info("Order placed")
		hub.Publish(EventOrderCreated, order) // Notify dashboards
		c.JSON(http.StatusCreated, order)
	}
}

// MyOrdersHandler returns the caller's orders, newest first
func MyOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders := []domain.Order{}
		email := middleware.CurrentUser(c).Email
		if err := db.Where("user_email = ?", email).Order("order_date desc").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// LibrarianOrdersHandler returns every order, newest first
func LibrarianOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders := []domain.Order{}
		if err := db.Order("order_date desc").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// transitionError carries the HTTP status of a rejected transition
type transitionError struct {
	status int    // HTTP status to answer with
	msg    string // Client-facing message
}

func (e *transitionError) Error() string { return e.msg }

// applyTransition moves an order to status to inside a transaction. The
// update is conditional on the status read, so concurrent changes to the
// same order cannot both succeed.
func applyTransition(db *gorm.DB, orderID string, to domain.OrderStatus, allow func(*domain.Order) error) (*domain.Order, domain.OrderStatus, error) {
	var order domain.Order
	var from domain.OrderStatus
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &transitionError{http.StatusNotFound, "Order not found"}
			}
			return err
		}
		if allow != nil {
			if err := allow(&order); err != nil {
				return err
			}
		}
		from = order.OrderStatus
		if !domain.CanTransition(from, to) {
			return &transitionError{http.StatusConflict, fmt.Sprintf("Cannot change order from %s to %s", from, to)}
		}
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND order_status = ?", orderID, from).
			Update("order_status", to) // Conditional update guards against lost races
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &transitionError{http.StatusConflict, "Order was changed by someone else, reload and try again"}
		}
		order.OrderStatus = to
		return nil
	})
	if err != nil {
		return nil, from, err
	}
	return &order, from, nil
}

// respondTransition writes the outcome of applyTransition
func respondTransition(c *gin.Context, hub *Hub, order *domain.Order, from domain.OrderStatus, err error) {
	var te *transitionError
	if errors.As(err, &te) {
		c.JSON(te.status, gin.H{"error": te.msg})
		return
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"order_id": c.Param("id"), "error": err.Error()}).Error("Order status change failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	middleware.OrderTransitions.WithLabelValues(string(from), string(order.OrderStatus)).Inc()
	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,                        // Order
		"from":     from,                            // Previous status
		"to":       order.OrderStatus,               // New status
		"by":       middleware.CurrentUser(c).Email, // Actor
	}).Info("Order status changed")
	hub.Publish(EventOrderStatus, *order) // Notify dashboards
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatusHandler lets order managers ship, deliver or cancel an order
func UpdateOrderStatusHandler(db *gorm.DB, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.OrderStatus.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderStatus must be one of pending, shipped, delivered, cancelled"})
			return
		}
		order, from, err := applyTransition(db, c.Param("id"), req.OrderStatus, nil)
		respondTransition(c, hub, order, from, err)
	}
}

// CancelOrderHandler lets a customer cancel their own pending order
func CancelOrderHandler(db *gorm.DB, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		order, from, err := applyTransition(db, c.Param("id"), domain.OrderCancelled, func(o *domain.Order) error {
			if o.UserEmail != user.Email {
				return &transitionError{http.StatusForbidden, "You can only cancel your own orders"} // Not the owner
			}
			return nil
		})
		respondTransition(c, hub, order, from, err)
	}
}
