package repository

import (
	"context"
	"errors"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KnownNameRepository remembers the first name used from each address.
type KnownNameRepository struct {
	db *gorm.DB
}

func NewKnownNameRepository(db *gorm.DB) *KnownNameRepository {
	return &KnownNameRepository{db: db}
}

// Remember records name for ip unless the address already has one.
func (r *KnownNameRepository) Remember(ctx context.Context, ip, name string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.KnownName{IPAddress: ip, Name: name}).Error
}

// Lookup returns the remembered name, or "" when there is none.
func (r *KnownNameRepository) Lookup(ctx context.Context, ip string) (string, error) {
	var kn models.KnownName
	err := r.db.WithContext(ctx).First(&kn, "ip_address = ?", ip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return kn.Name, nil
}
