// 文件路径: internal/service/address.go
// 模块说明: 顾客收货地址。第一个地址自动成为默认地址，每人最多 20 个。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

const maxAddressesPerUser = 20

// AddressService manages user-owned shipping addresses.
type AddressService interface {
	List(ctx context.Context, userID int64) ([]*repository.Address, error)
	Get(ctx context.Context, userID, id int64) (*repository.Address, error)
	Save(ctx context.Context, userID int64, input AddressInput) (*repository.Address, error)
	Delete(ctx context.Context, userID, id int64) error
}

// AddressInput 是新建或修改地址的请求数据。ID 为 0 时新建。
type AddressInput struct {
	ID         int64  `json:"id"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

type addressService struct {
	addresses repository.AddressRepository
	now       func() time.Time
}

// NewAddressService wires address management.
func NewAddressService(store repository.Store) AddressService {
	s := &addressService{now: time.Now}
	if store != nil {
		s.addresses = store.Addresses()
	}
	return s
}

func (in AddressInput) normalize() (AddressInput, error) {
	in.FullName = stripTags(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Line1 = stripTags(in.Line1)
	in.Line2 = stripTags(in.Line2)
	in.City = stripTags(in.City)
	in.State = stripTags(in.State)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	switch {
	case in.FullName == "":
		return in, fmt.Errorf("%w: full_name / 收件人不能为空", ErrInvalidInput)
	case in.Line1 == "":
		return in, fmt.Errorf("%w: line1 / 地址不能为空", ErrInvalidInput)
	case in.City == "":
		return in, fmt.Errorf("%w: city / 城市不能为空", ErrInvalidInput)
	case in.PostalCode == "":
		return in, fmt.Errorf("%w: postal_code / 邮编不能为空", ErrInvalidInput)
	case len(in.Country) != 2:
		return in, fmt.Errorf("%w: country must be ISO 3166 alpha-2 / 国家代码无效", ErrInvalidInput)
	}
	return in, nil
}

func (s *addressService) List(ctx context.Context, userID int64) ([]*repository.Address, error) {
	if s == nil || s.addresses == nil {
		return nil, fmt.Errorf("address service not configured / 地址服务未配置")
	}
	list, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*repository.Address{}
	}
	return list, nil
}

func (s *addressService) Get(ctx context.Context, userID, id int64) (*repository.Address, error) {
	if s == nil || s.addresses == nil {
		return nil, fmt.Errorf("address service not configured / 地址服务未配置")
	}
	address, err := s.addresses.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return address, nil
}

func (s *addressService) Save(ctx context.Context, userID int64, input AddressInput) (*repository.Address, error) {
	if s == nil || s.addresses == nil {
		return nil, fmt.Errorf("address service not configured / 地址服务未配置")
	}
	in, err := input.normalize()
	if err != nil {
		return nil, err
	}
	now := s.now().Unix()
	address := &repository.Address{UserID: userID, CreatedAt: now}
	if in.ID > 0 {
		existing, err := s.Get(ctx, userID, in.ID)
		if err != nil {
			return nil, err
		}
		address = existing
	} else {
		count, err := s.addresses.CountByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if count >= maxAddressesPerUser {
			return nil, ErrAddressLimit
		}
		if count == 0 {
			in.IsDefault = true
		}
	}
	address.FullName = in.FullName
	address.Phone = in.Phone
	address.Line1 = in.Line1
	address.Line2 = in.Line2
	address.City = in.City
	address.State = in.State
	address.PostalCode = in.PostalCode
	address.Country = in.Country
	// 默认地址只能通过把另一个地址设为默认来替换。
	address.IsDefault = address.IsDefault || in.IsDefault
	address.UpdatedAt = now
	if err := s.addresses.Save(ctx, address); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return address, nil
}

func (s *addressService) Delete(ctx context.Context, userID, id int64) error {
	if s == nil || s.addresses == nil {
		return fmt.Errorf("address service not configured / 地址服务未配置")
	}
	if err := s.addresses.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAddressNotFound
		}
		return err
	}
	return nil
}
