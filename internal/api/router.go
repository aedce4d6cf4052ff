package api

import (
	"bookcourier/internal/access"     // Capability table
	"bookcourier/internal/domain"     // Importing domain models
	"bookcourier/internal/media"      // Image uploads
	"bookcourier/internal/middleware" // Auth and guards
	"bookcourier/internal/payment"    // Checkout gateway
	"net/http"                        // HTTP status codes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the collaborators shared by all handlers
type Deps struct {
	DB        *gorm.DB                 // Primary store
	Redis     *redis.Client            // Read-through cache, nil disables caching
	Verifier  middleware.TokenVerifier // Bearer token verification
	Payments  payment.Gateway          // Hosted checkout
	Uploader  media.Uploader           // Image storage, nil disables uploads
	Hub       *Hub                     // Order event feed
	JWTSecret string                   // Enables /auth/register and /auth/login when set
}

// RegisterRoutes mounts the REST surface on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	db, rdb := d.DB, d.Redis

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }) // Liveness probe
	r.GET("/metrics", middleware.MetricsHandler())                                           // Prometheus scrape endpoint

	// Local accounts, only when tokens are issued by this backend
	if d.JWTSecret != "" {
		r.POST("/auth/register", RegisterHandler(db, d.JWTSecret)) // Registration endpoint
		r.POST("/auth/login", LoginHandler(db, d.JWTSecret))       // Login endpoint
	}

	// Public catalog
	r.GET("/books", ListBooksHandler(db, rdb))          // Search and sort published books
	r.GET("/books/latest", LatestBooksHandler(db, rdb)) // Newest published books
	r.GET("/books/:id", GetBookHandler(db))             // Book detail
	r.GET("/books/:id/reviews", ListReviewsHandler(db)) // Reviews of a book

	// Everything below requires a verified bearer token
	auth := r.Group("")
	auth.Use(middleware.AuthMiddleware(db, d.Verifier))
	can := middleware.RequireCapability
	staff := middleware.RequireRole(domain.RoleLibrarian, domain.RoleAdmin) // Librarians and admins

	auth.POST("/books", can(access.AddBook), CreateBookHandler(db, rdb))                    // List a new book
	auth.PATCH("/books/:id", can(access.EditBook), UpdateBookHandler(db, rdb))              // Edit a book
	auth.PATCH("/books/:id/status", can(access.ManageBooks), SetBookStatusHandler(db, rdb)) // Publish or unpublish
	auth.DELETE("/books/:id", can(access.ManageBooks), DeleteBookHandler(db, rdb))          // Delete with orders, reviews and wishlist entries
	auth.GET("/all-books", can(access.ManageBooks), AllBooksHandler(db))                    // Every book, any status
	auth.GET("/my-books", staff, MyBooksHandler(db))                                        // Caller's listings
	auth.POST("/books/:id/review", can(access.WriteReview), CreateReviewHandler(db))        // Post a review

	auth.POST("/orders", can(access.PlaceOrder), CreateOrderHandler(db, d.Hub))               // Place an order
	auth.GET("/my-orders", can(access.ViewMyOrders), MyOrdersHandler(db))                     // Caller's orders
	auth.GET("/librarian-orders", staff, LibrarianOrdersHandler(db))                          // All orders
	auth.PATCH("/orders/:id/status", staff, UpdateOrderStatusHandler(db, d.Hub))              // Ship, deliver or cancel
	auth.PATCH("/orders/:id/cancel", can(access.ViewMyOrders), CancelOrderHandler(db, d.Hub)) // Owner cancels a pending order

	auth.GET("/my-wishlist", can(access.ManageWishlist), MyWishlistHandler(db))             // Caller's wishlist
	auth.POST("/wishlist", can(access.ManageWishlist), AddWishlistHandler(db))              // Save a book
	auth.DELETE("/wishlist/:bookId", can(access.ManageWishlist), RemoveWishlistHandler(db)) // Remove a saved book

	auth.GET("/users", can(access.ManageUsers), ListUsersHandler(db, rdb))              // All accounts
	auth.POST("/users", SaveUserHandler(db, rdb))                                       // Save the caller's profile
	auth.GET("/users/:email/role", UserRoleHandler(db, rdb))                            // Role lookup by email
	auth.PATCH("/users/:id/role", can(access.ManageUsers), SetUserRoleHandler(db, rdb)) // Promote or demote

	auth.GET("/my-payments", can(access.ViewInvoices), MyPaymentsHandler(db))                                   // Caller's invoices
	auth.GET("/dashboard-stats", DashboardStatsHandler(db))                                                     // Role-scoped counters
	auth.POST("/create-checkout-session", can(access.PlaceOrder), CreateCheckoutSessionHandler(db, d.Payments)) // Start payment
	auth.POST("/verify-payment", can(access.PlaceOrder), VerifyPaymentHandler(db, d.Payments, d.Hub))           // Confirm payment

	auth.POST("/uploads/image", can(access.UploadImage), UploadImageHandler(d.Uploader)) // Server-side image upload

	if d.Hub != nil {
		auth.GET("/ws/orders", OrdersFeedHandler(d.Hub)) // Live order events
	}
}
