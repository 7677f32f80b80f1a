package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/training-assessment-service/internal/config"
	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories/casdoor"
)

const tenantContextKey = "tenant_context"

// TokenParser validates a bearer token. *casdoorsdk.Client satisfies it.
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorAuthMiddleware authenticates requests with Casdoor and resolves the
// caller's tenant and student profile
type CasdoorAuthMiddleware struct {
	parser      TokenParser
	userRepo    repositories.UserRepository
	studentRepo repositories.StudentRepository
}

// NewCasdoorAuthMiddleware creates a new Casdoor authentication middleware
func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository, studentRepo repositories.StudentRepository) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return NewAuthMiddleware(client, userRepo, studentRepo)
}

// NewAuthMiddleware builds the middleware around any token parser
func NewAuthMiddleware(parser TokenParser, userRepo repositories.UserRepository, studentRepo repositories.StudentRepository) *CasdoorAuthMiddleware {
	return &CasdoorAuthMiddleware{
		parser:      parser,
		userRepo:    userRepo,
		studentRepo: studentRepo,
	}
}

// AuthMiddleware returns a Gin middleware function for Casdoor authentication
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "authorization header missing")
			return
		}

		// Extract token from "Bearer <token>" format
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := cam.parser.ParseJwtToken(tokenParts[1])
		if err != nil {
			abortUnauthorized(c, fmt.Sprintf("invalid token: %v", err))
			return
		}

		user, err := cam.extractUserFromClaims(c.Request.Context(), claims)
		if err != nil {
			abortUnauthorized(c, fmt.Sprintf("failed to extract user info: %v", err))
			return
		}

		tc, err := cam.tenantContext(c.Request.Context(), user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Failed to resolve student profile",
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set(tenantContextKey, tc)

		c.Next()
	}
}

// RequireRoleMiddleware checks if user has required role. Admins always pass.
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Forbidden",
				Details: err.Error(),
			})
			c.Abort()
			return
		}

		for _, required := range requiredRoles {
			if role == required || role == models.RoleAdmin {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
			Details: fmt.Sprintf("required role: %v", requiredRoles),
		})
		c.Abort()
	}
}

// extractUserFromClaims prefers the identity stored in Casdoor and falls back
// to the claims
func (cam *CasdoorAuthMiddleware) extractUserFromClaims(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	if claims.Id == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	user, err := cam.userRepo.GetByID(ctx, claims.Id)
	if err != nil || user == nil {
		user = casdoor.ConvertUser(&claims.User)
	}
	if user.TenantID == 0 {
		// Tenant is a user property; tokens issued before it was set carry it
		// only in the claims
		user.TenantID = casdoor.ConvertUser(&claims.User).TenantID
	}
	return user, nil
}

// tenantContext attaches the student profile of student callers. A student
// without a profile keeps a nil StudentID and is refused by student routes.
func (cam *CasdoorAuthMiddleware) tenantContext(ctx context.Context, user *models.User) (models.TenantContext, error) {
	tc := models.TenantContext{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Role:     user.Role,
	}
	if user.Role != models.RoleStudent || user.TenantID == 0 {
		return tc, nil
	}

	student, err := cam.studentRepo.GetByUserID(ctx, nil, user.TenantID, user.ID)
	switch {
	case err == nil:
		tc.StudentID = &student.ID
	case !repositories.IsNotFoundError(err):
		return tc, err
	}
	return tc, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Message: "Unauthorized",
		Details: message,
	})
	c.Abort()
}

// GetTenantContext returns the context stored by AuthMiddleware
func GetTenantContext(c *gin.Context) (models.TenantContext, bool) {
	v, exists := c.Get(tenantContextKey)
	if !exists {
		return models.TenantContext{}, false
	}
	tc, ok := v.(models.TenantContext)
	return tc, ok
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
