package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"whatsapp-crm-gateway/internal/gateway"
	"whatsapp-crm-gateway/internal/models"
)

var ErrTenantNotFound = errors.New("tenant not found")

// TenantStore resolves tenants to provider credentials.
type TenantStore struct {
	db *gorm.DB
}

func NewTenantStore(db *gorm.DB) *TenantStore {
	return &TenantStore{db: db}
}

// Credentials returns the provider credentials of an enabled tenant.
func (s *TenantStore) Credentials(ctx context.Context, tenantID string) (gateway.Credentials, error) {
	var t models.Tenant
	err := s.db.WithContext(ctx).Where("id = ? AND enabled = ?", tenantID, true).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gateway.Credentials{}, fmt.Errorf("%s: %w", tenantID, ErrTenantNotFound)
	}
	if err != nil {
		return gateway.Credentials{}, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}
	return gateway.Credentials{BaseURL: t.BaseURL, Token: t.Token, InstanceID: t.InstanceID}, nil
}

func (s *TenantStore) List(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := s.db.WithContext(ctx).Order("id").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

// Save creates or replaces a tenant.
func (s *TenantStore) Save(ctx context.Context, t *models.Tenant) error {
	if t.ID == "" || t.BaseURL == "" {
		return fmt.Errorf("save tenant: id and base url are required: %w", gateway.ErrInvalidArgument)
	}
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("save tenant %s: %w", t.ID, err)
	}
	return nil
}
