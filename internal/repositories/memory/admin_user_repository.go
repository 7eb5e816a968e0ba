package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"github.com/meue/rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUserRepository implements repositories.AdminUserRepository over a map.
type AdminUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.AdminUser
}

// NewAdminUserRepository creates an empty in-memory admin user repository
func NewAdminUserRepository() *AdminUserRepository {
	return &AdminUserRepository{
		users: make(map[primitive.ObjectID]*models.AdminUser),
	}
}

// Create stores a new admin user and assigns it an id
func (r *AdminUserRepository) Create(ctx context.Context, adminUser *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if adminUser.ID.IsZero() {
		adminUser.ID = primitive.NewObjectID()
	}
	adminUser.CreatedAt = time.Now()
	adminUser.UpdatedAt = time.Now()
	copied := *adminUser
	r.users[adminUser.ID] = &copied
	return nil
}

// FindByEmail finds an admin user by email
func (r *AdminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, raffleerr.ErrNotFound
}

// FindByID finds an admin user by ID
func (r *AdminUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, raffleerr.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

var _ repositories.AdminUserRepository = (*AdminUserRepository)(nil)
