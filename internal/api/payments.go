package api

import (
	"bookcourier/internal/domain"     // Importing domain models
	"bookcourier/internal/middleware" // Caller lookup and metrics
	"bookcourier/internal/payment"    // Checkout gateway
	"errors"                          // Error inspection
	"net/http"                        // HTTP status codes

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Amounts
	"github.com/sirupsen/logrus"    // Structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// CheckoutRequest is the body of POST /create-checkout-session
type CheckoutRequest struct {
	OrderID   string          `json:"_id" binding:"required"` // Order to pay
	BookID    string          `json:"bookId"`                 // Informational, the stored order wins
	BookTitle string          `json:"bookTitle"`              // Informational
	BookImage string          `json:"bookImage"`              // Informational
	Price     decimal.Decimal `json:"price"`                  // Informational, never charged
	Customer  struct {
		Name  string `json:"name"`  // Customer name
		Email string `json:"email"` // Customer email
	} `json:"customer"`
}

// VerifyRequest is the body of POST /verify-payment
type VerifyRequest struct {
	SessionID string `json:"sessionId" binding:"required"` // Checkout session id from the return URL
}

// errAlreadyPaid marks a repeated verification of a paid order
var errAlreadyPaid = errors.New("already paid")

// CreateCheckoutSessionHandler opens a hosted checkout for a pending, unpaid order
func CreateCheckoutSessionHandler(db *gorm.DB, gw payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Order id (_id) is required"})
			return
		}
		user := middleware.CurrentUser(c)
		var order domain.Order
		if err := db.First(&order, "id = ?", req.OrderID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		if order.UserEmail != user.Email {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only pay for your own orders"})
			return
		}
		if !order.CanPay() {
			c.JSON(http.StatusConflict, gin.H{"error": "Order is not awaiting payment"}) // Only pending, unpaid orders
			return
		}
		name := req.Customer.Name
		if name == "" {
			name = order.UserName
		}
		co, err := gw.CreateCheckout(c.Request.Context(), payment.CheckoutRequest{
			OrderID:       order.ID,        // Order to mark paid
			BookID:        order.BookID,    // Ordered book
			BookTitle:     order.BookTitle, // Line item name
			BookImage:     order.BookImage, // Line item image
			Price:         order.Price,     // Stored price snapshot
			CustomerName:  name,            // Customer name
			CustomerEmail: order.UserEmail, // Receipt email
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{"order_id": order.ID, "error": err.Error()}).Error("Create checkout session failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
			return
		}
		logrus.WithFields(logrus.Fields{"order_id": order.ID, "session_id": co.ID}).Info("Checkout session created")
		c.JSON(http.StatusOK, gin.H{"url": co.URL, "id": co.ID})
	}
}

// VerifyPaymentHandler confirms a checkout session, marks the order paid and records the payment
func VerifyPaymentHandler(db *gorm.DB, gw payment.Gateway, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
			return
		}
		v, err := gw.Verify(c.Request.Context(), req.SessionID)
		if errors.Is(err, payment.ErrSessionNotFound) {
			middleware.PaymentsVerified.WithLabelValues("error").Inc()
			c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
			return
		}
		if err != nil {
			middleware.PaymentsVerified.WithLabelValues("error").Inc()
			logrus.WithFields(logrus.Fields{"session_id": req.SessionID, "error": err.Error()}).Error("Verify payment failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment verification failed"})
			return
		}
		if !v.Paid {
			middleware.PaymentsVerified.WithLabelValues("unpaid").Inc()
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment not completed"})
			return
		}
		user := middleware.CurrentUser(c)
		transactionID := v.TransactionID
		if transactionID == "" {
			transactionID = v.SessionID // Some sessions settle without a payment intent
		}
		var order domain.Order
		var rec domain.Payment
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&order, "id = ?", v.OrderID).Error; err != nil {
				return err
			}
			if order.UserEmail != user.Email {
				return &transitionError{http.StatusForbidden, "This payment belongs to another account"}
			}
			if err := tx.Where("session_id = ?", v.SessionID).First(&rec).Error; err == nil {
				return errAlreadyPaid // Same session verified before
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if order.PaymentStatus == domain.PaymentPaid {
				return errAlreadyPaid
			}
			if !order.CanPay() {
				return &transitionError{http.StatusConflict, "Order is " + string(order.OrderStatus) + " and can no longer be paid"}
			}
			res := tx.Model(&domain.Order{}).
				Where("id = ? AND order_status = ? AND payment_status = ?", order.ID, domain.OrderPending, domain.PaymentUnpaid).
				Updates(map[string]any{"payment_status": domain.PaymentPaid, "transaction_id": transactionID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Paid or moved on since the read above
				if err := tx.First(&order, "id = ?", order.ID).Error; err != nil {
					return err
				}
				if order.PaymentStatus == domain.PaymentPaid {
					return errAlreadyPaid
				}
				return &transitionError{http.StatusConflict, "Order is " + string(order.OrderStatus) + " and can no longer be paid"}
			}
			order.PaymentStatus = domain.PaymentPaid
			order.TransactionID = transactionID
			rec = domain.Payment{
				OrderID:       order.ID,                         // Paid order
				BookID:        order.BookID,                     // Ordered book
				BookTitle:     order.BookTitle,                  // Title snapshot
				UserEmail:     order.UserEmail,                  // Payer
				Amount:        payment.FromMinor(v.AmountMinor), // Charged amount
				Currency:      v.Currency,                       // Charged currency
				TransactionID: transactionID,                    // Processor reference
				SessionID:     v.SessionID,                      // Checkout session
			}
			return tx.Create(&rec).Error
		})
		var te *transitionError
		switch {
		case errors.Is(err, errAlreadyPaid):
			middleware.PaymentsVerified.WithLabelValues("duplicate").Inc()
			c.JSON(http.StatusOK, gin.H{"message": "Payment already verified", "orderId": order.ID, "transactionId": order.TransactionID})
			return
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		case errors.As(err, &te):
			c.JSON(te.status, gin.H{"error": te.msg})
			return
		case err != nil:
			middleware.PaymentsVerified.WithLabelValues("error").Inc()
			logrus.WithFields(logrus.Fields{"session_id": v.SessionID, "order_id": v.OrderID, "error": err.Error()}).Error("Record payment failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
			return
		}
		middleware.PaymentsVerified.WithLabelValues("paid").Inc()
		logrus.WithFields(logrus.Fields{
			"order_id":       order.ID,      // Paid order
			"transaction_id": transactionID, // Processor reference
			"amount":         rec.Amount,    // Charged amount
			"currency":       rec.Currency,  // Charged currency
		}).Info("Payment verified")
		hub.Publish(EventOrderPaid, order)
		c.JSON(http.StatusOK, gin.H{"message": "Payment verified", "orderId": order.ID, "transactionId": transactionID, "payment": rec})
	}
}

// MyPaymentsHandler returns the caller's invoices, newest first
func MyPaymentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		payments := []domain.Payment{}
		email := middleware.CurrentUser(c).Email
		if err := db.Where("user_email = ?", email).Order("created_at desc").Find(&payments).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}
