package services

import (
	"context"
	"errors"

	"github.com/Mzhdi/Nounou-sub000/models"
	"github.com/Mzhdi/Nounou-sub000/utils"

	"gorm.io/gorm"
)

// ErrInvalidCredentials covers both an unknown email and a wrong
// password, so login failures do not reveal which accounts exist.
var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*models.User, error) {
	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, &ValidationError{Field: "email", Message: "already registered"}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &DatabaseError{Op: "auth.check_email", Err: err}
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, &BusinessError{Op: "auth.hash_password", Err: err}
	}

	user := models.User{Email: email, Password: hashed, FullName: fullName}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, &DatabaseError{Op: "auth.create_user", Err: err}
	}
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", &DatabaseError{Op: "auth.find_user", Err: err}
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", ErrInvalidCredentials
	}

	return utils.GenerateJWT(user.ID, user.IsAdmin)
}
