package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bookcourier/internal/access"
	"bookcourier/internal/domain"
	"bookcourier/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const secret = "test-secret"

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func router(db *gorm.DB, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	handlers := []gin.HandlerFunc{AuthMiddleware(db, JWTVerifier{Secret: secret})}
	if guard != nil {
		handlers = append(handlers, guard)
	}
	handlers = append(handlers, func(c *gin.Context) {
		u := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": u.Email, "role": u.Role})
	})
	r.GET("/me", handlers...)
	return r
}

func call(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, email string) string {
	tok, err := utils.GenerateJWT("", email, "Name", "", secret)
	require.NoError(t, err)
	return tok
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	r := router(testDB(t), nil)
	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "not-a-jwt").Code)
}

func TestAuthCreatesUserOnFirstRequest(t *testing.T) {
	db := testDB(t)
	r := router(db, nil)

	w := call(r, token(t, "New@Example.com"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"new@example.com","role":"user"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	call(r, token(t, "new@example.com"))
	var n int64
	require.NoError(t, db.Model(&domain.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestRequireCapabilityReadsRoleFromDB(t *testing.T) {
	db := testDB(t)
	r := router(db, RequireCapability(access.ManageUsers))
	tok := token(t, "boss@example.com")

	assert.Equal(t, http.StatusForbidden, call(r, tok).Code)

	require.NoError(t, db.Model(&domain.User{}).Where("email = ?", "boss@example.com").Update("role", domain.RoleAdmin).Error)
	assert.Equal(t, http.StatusOK, call(r, tok).Code)
}

func TestRequireRole(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&domain.User{Email: "lib@example.com", Role: domain.RoleLibrarian}).Error)
	r := router(db, RequireRole(domain.RoleLibrarian, domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, call(r, token(t, "lib@example.com")).Code)
	assert.Equal(t, http.StatusForbidden, call(r, token(t, "plain@example.com")).Code)
}
