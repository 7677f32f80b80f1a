package repositories

import (
	"context"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

// UserRepository reads identities from the identity provider. The service
// never owns user data.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
