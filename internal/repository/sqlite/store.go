// 文件路径: internal/repository/sqlite/store.go
// 模块说明: 组装基于 SQLite 的全部仓储实现。
package sqlite

import (
	"database/sql"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// Store wires SQLite-backed repository implementations.
type Store struct {
	db         *sql.DB
	users      repository.UserRepository
	tokens     repository.TokenRepository
	loginLogs  repository.LoginLogRepository
	settings   repository.SettingRepository
	categories repository.CategoryRepository
	products   repository.ProductRepository
	addresses  repository.AddressRepository
	carts      repository.CartRepository
	wishlists  repository.WishlistRepository
	orders     repository.OrderRepository
	trackings  repository.TrackingRepository
	reports    repository.ReportRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore constructs a SQLite-backed repository store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:         db,
		users:      &userRepo{db: db},
		tokens:     &tokenRepo{db: db},
		loginLogs:  &loginLogRepo{db: db},
		settings:   &settingRepo{db: db},
		categories: &categoryRepo{db: db},
		products:   &productRepo{db: db},
		addresses:  &addressRepo{db: db},
		carts:      &cartRepo{db: db},
		wishlists:  &wishlistRepo{db: db},
		orders:     &orderRepo{db: db},
		trackings:  &trackingRepo{db: db},
		reports:    &reportRepo{db: db},
	}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() repository.UserRepository           { return s.users }
func (s *Store) Tokens() repository.TokenRepository         { return s.tokens }
func (s *Store) LoginLogs() repository.LoginLogRepository   { return s.loginLogs }
func (s *Store) Settings() repository.SettingRepository     { return s.settings }
func (s *Store) Categories() repository.CategoryRepository  { return s.categories }
func (s *Store) Products() repository.ProductRepository     { return s.products }
func (s *Store) Addresses() repository.AddressRepository    { return s.addresses }
func (s *Store) Carts() repository.CartRepository           { return s.carts }
func (s *Store) Wishlists() repository.WishlistRepository   { return s.wishlists }
func (s *Store) Orders() repository.OrderRepository         { return s.orders }
func (s *Store) Trackings() repository.TrackingRepository   { return s.trackings }
func (s *Store) Reports() repository.ReportRepository       { return s.reports }
