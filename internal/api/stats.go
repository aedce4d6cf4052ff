package api

import (
	"bookcourier/internal/domain"     // Importing domain models
	"bookcourier/internal/middleware" // Caller lookup
	"net/http"                        // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"golang.org/x/sync/errgroup" // Concurrent counts
	"gorm.io/gorm"               // GORM ORM library
)

// DashboardStats is the body of GET /dashboard-stats
type DashboardStats struct {
	Role            domain.Role `json:"role"`            // Caller role
	TotalOrders     int64       `json:"totalOrders"`     // Orders in scope
	CompletedOrders int64       `json:"completedOrders"` // Delivered orders in scope
	PendingOrders   int64       `json:"pendingOrders"`   // Pending orders in scope
	TotalBooks      int64       `json:"totalBooks"`      // Books in scope
}

// DashboardStatsHandler counts orders and books in the caller's scope:
// users see their own orders and the published catalog, librarians every
// order and their own listings, admins everything
func DashboardStatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		g, ctx := errgroup.WithContext(c.Request.Context())
		orders := func() *gorm.DB {
			q := db.WithContext(ctx).Model(&domain.Order{})
			if user.Role == domain.RoleUser {
				q = q.Where("user_email = ?", user.Email) // Own orders only
			}
			return q
		}
		stats := DashboardStats{Role: user.Role}
		g.Go(func() error { return orders().Count(&stats.TotalOrders).Error })
		g.Go(func() error {
			return orders().Where("order_status = ?", domain.OrderDelivered).Count(&stats.CompletedOrders).Error
		})
		g.Go(func() error {
			return orders().Where("order_status = ?", domain.OrderPending).Count(&stats.PendingOrders).Error
		})
		g.Go(func() error {
			q := db.WithContext(ctx).Model(&domain.Book{})
			switch user.Role {
			case domain.RoleLibrarian:
				q = q.Where("seller_email = ?", user.Email) // Own listings
			case domain.RoleUser:
				q = q.Where("status = ?", domain.BookPublished) // Visible catalog
			}
			return q.Count(&stats.TotalBooks).Error
		})
		if err := g.Wait(); err != nil {
			logrus.WithFields(logrus.Fields{"user": user.Email, "error": err.Error()}).Error("Dashboard stats failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard stats"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
