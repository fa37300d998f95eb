package service

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	apperrors "tlgsite/internal/errors"
)

// StaffService checks the shared staff password that gates federated login.
type StaffService interface {
	Check(password string) error
}

type staffService struct {
	plain string
	hash  []byte
}

// NewStaffService creates a checker. A bcrypt hash takes precedence over the plain secret.
func NewStaffService(plain, bcryptHash string) StaffService {
	s := &staffService{plain: plain}
	if bcryptHash != "" {
		s.hash = []byte(bcryptHash)
	}
	return s
}

// Check returns nil on a match, errors.ErrStaffNotConfigured without a secret and
// errors.ErrInvalidCredentials otherwise.
func (s *staffService) Check(password string) error {
	switch {
	case len(s.hash) > 0:
		if bcrypt.CompareHashAndPassword(s.hash, []byte(password)) != nil {
			return apperrors.ErrInvalidCredentials
		}
		return nil
	case s.plain != "":
		if subtle.ConstantTimeCompare([]byte(s.plain), []byte(password)) != 1 {
			return apperrors.ErrInvalidCredentials
		}
		return nil
	default:
		return apperrors.ErrStaffNotConfigured
	}
}
