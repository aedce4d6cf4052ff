package access

import (
	"context"
	"net/url"

	"bookcourier/internal/client"
	"bookcourier/internal/domain"

	"github.com/sirupsen/logrus"
)

// Resolver fetches a caller's role from the backend. It keeps nothing
// between calls.
type Resolver struct {
	api *client.Client
}

// NewResolver looks roles up through api.
func NewResolver(api *client.Client) *Resolver {
	return &Resolver{api: api}
}

type roleResponse struct {
	Role string `json:"role"`
}

// Resolve returns the role stored for email, or RoleUser when the lookup fails.
func (r *Resolver) Resolve(ctx context.Context, email string) domain.Role {
	var resp roleResponse
	if err := r.api.Get(ctx, "/users/"+url.PathEscape(email)+"/role", &resp); err != nil {
		logrus.WithFields(logrus.Fields{"email": email, "error": err}).Debug("role lookup failed, defaulting to user")
		return domain.RoleUser
	}
	role, err := domain.ParseRole(resp.Role)
	if err != nil {
		return domain.RoleUser
	}
	return role
}
