package service

import (
	"fmt"
	"strings"

	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/repository"
)

// AddressService 收货地址管理服务
type AddressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) *AddressService {
	return &AddressService{addressRepo: addressRepo}
}

// ListAddresses 查询用户地址，默认地址排前
func (s *AddressService) ListAddresses(userID uint) ([]models.Address, error) {
	addresses, err := s.addressRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

// CreateAddress 新建用户地址
func (s *AddressService) CreateAddress(userID uint, input AddressInput, isDefault bool) (*models.Address, error) {
	if strings.TrimSpace(input.Line1) == "" || strings.TrimSpace(input.City) == "" || strings.TrimSpace(input.PostalCode) == "" {
		return nil, fmt.Errorf("%w: line1, city and postal_code are required", ErrAddressInvalid)
	}

	address := &models.Address{
		UserID:     userID,
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      strings.TrimSpace(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		Phone:      strings.TrimSpace(input.Phone),
		IsDefault:  isDefault,
	}
	if address.Country == "" {
		address.Country = "IN"
	}
	if err := s.addressRepo.Create(address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return address, nil
}

// DeleteAddress 删除用户自己的地址
func (s *AddressService) DeleteAddress(userID, addressID uint) error {
	address, err := s.addressRepo.GetByIDAndUser(addressID, userID)
	if err != nil {
		return fmt.Errorf("load address: %w", err)
	}
	if address == nil {
		return ErrAddressNotFound
	}
	return s.addressRepo.Delete(address.ID, userID)
}
