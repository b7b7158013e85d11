package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrAdminDenied = errors.New("incorrect admin password")

// AdminName is the login name reserved for the administrator.
const AdminName = "admin"

// AdminGate checks the shared admin secret. It keeps only a bcrypt hash of
// the configured secret. It is advisory, not an authentication boundary.
type AdminGate struct {
	hash []byte
}

func NewAdminGate(secret string) (*AdminGate, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AdminGate{hash: hash}, nil
}

func (g *AdminGate) Check(password string) error {
	if password == "" || bcrypt.CompareHashAndPassword(g.hash, []byte(password)) != nil {
		return ErrAdminDenied
	}
	return nil
}

// IsAdminName reports whether a login name asks for the admin view.
func IsAdminName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), AdminName)
}
