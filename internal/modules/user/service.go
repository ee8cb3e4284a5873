package user

import (
	"errors"

	"github.com/storynest/core/internal/models"
	"github.com/storynest/core/internal/pkg/pagination"
	"github.com/storynest/core/internal/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("User not found")
	// ErrSuperAdminImmutable guards the permanent super-admin: it can never
	// be demoted or deleted.
	ErrSuperAdminImmutable = errors.New("The super-admin account cannot be modified")
	ErrAdminDeletesAdmin   = errors.New("Admins cannot delete other admins")
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// List returns the paginated user directory, newest first.
func (s *Service) List(q pagination.Query) ([]models.UserModel, response.Pagination, error) {
	tx := s.db.Model(&models.UserModel{}).Order("created_at DESC")
	var users []models.UserModel
	pag, err := pagination.Paginate(tx, q, &users)
	return users, pag, err
}

func (s *Service) get(id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Promote raises a user to admin.
func (s *Service) Promote(id string) (*models.UserModel, error) {
	u, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleSuperAdmin {
		return nil, ErrSuperAdminImmutable
	}
	if err := s.db.Model(u).Update("role", models.RoleAdmin).Error; err != nil {
		return nil, err
	}
	u.Role = models.RoleAdmin
	return u, nil
}

// Demote lowers an admin back to user. The super-admin can never be demoted.
func (s *Service) Demote(id string) (*models.UserModel, error) {
	u, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleSuperAdmin {
		return nil, ErrSuperAdminImmutable
	}
	if err := s.db.Model(u).Update("role", models.RoleUser).Error; err != nil {
		return nil, err
	}
	u.Role = models.RoleUser
	return u, nil
}

// Delete removes an account. The super-admin can never be deleted, and a
// plain admin cannot delete another admin.
func (s *Service) Delete(id string, callerRole models.Role) error {
	u, err := s.get(id)
	if err != nil {
		return err
	}
	if u.Role == models.RoleSuperAdmin {
		return ErrSuperAdminImmutable
	}
	if u.Role == models.RoleAdmin && callerRole != models.RoleSuperAdmin {
		return ErrAdminDeletesAdmin
	}
	return s.db.Delete(u).Error
}
