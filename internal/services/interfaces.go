package services

import (
	"context"

	"github.com/billstock/billstock-api/internal/models"
)

// LookupServiceInterface defines the interface for the bill lookup service
type LookupServiceInterface interface {
	// InquireBatch resolves a batch of account ids against the upstream
	// provider, one result per id in input order
	InquireBatch(ctx context.Context, providerCode string, accountIDs []string) ([]models.BatchResult, error)

	// Health returns service health status
	Health() map[string]interface{}
}

// StockServiceInterface defines the interface for the stock inventory service
type StockServiceInterface interface {
	// Import stages accepted bills into stock, skipping duplicates
	Import(ctx context.Context, bills []models.Bill, importedBy string) (*models.ImportResponse, error)

	// List returns the current inventory
	List(ctx context.Context) (*models.StockListResponse, error)

	// Get returns a single staged bill by key
	Get(ctx context.Context, key string) (*models.StockItem, error)

	// Remove drops a staged bill by key
	Remove(ctx context.Context, key string) error
}

// SalesServiceInterface defines the interface for the sell/history service
type SalesServiceInterface interface {
	// Sell moves staged bills into the immutable history ledger
	Sell(ctx context.Context, req models.SellRequest) (*models.Sale, error)

	// History returns the full sale ledger
	History(ctx context.Context) (*models.SalesListResponse, error)
}

// MemberServiceInterface defines the interface for member management and auth
type MemberServiceInterface interface {
	Create(ctx context.Context, req models.CreateMemberRequest) (*models.Member, error)
	Get(ctx context.Context, id string) (*models.Member, error)
	List(ctx context.Context) ([]models.Member, error)
	Update(ctx context.Context, id string, req models.UpdateMemberRequest) (*models.Member, error)
	Delete(ctx context.Context, id string) error

	// Login verifies credentials and issues a bearer token
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)

	// VerifyToken validates a bearer token and returns the member id and role
	VerifyToken(token string) (memberID, role string, err error)
}

// CacheServiceInterface defines the interface for cache service
type CacheServiceInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error

	// Health returns cache service health status
	Health() map[string]interface{}
}

// BatchRunner abstracts the fan-out engine so the lookup service can be
// tested without a network.
type BatchRunner interface {
	RunBatch(ctx context.Context, providerCode string, accountIDs []string) ([]models.BatchResult, error)
}

// StockRepository abstracts the stock persistence backend.
type StockRepository interface {
	Put(ctx context.Context, item models.StockItem) error
	Get(ctx context.Context, key string) (models.StockItem, error)
	List(ctx context.Context) ([]models.StockItem, error)
	Remove(ctx context.Context, key string) error
}

// SalesRepository abstracts the append-only sale ledger backend.
type SalesRepository interface {
	Append(ctx context.Context, sale models.Sale) error
	List(ctx context.Context) ([]models.Sale, error)
}

// MemberRepository abstracts the member store backend.
type MemberRepository interface {
	Create(ctx context.Context, member models.Member) error
	GetByID(ctx context.Context, id string) (models.Member, error)
	GetByEmail(ctx context.Context, email string) (models.Member, error)
	List(ctx context.Context) ([]models.Member, error)
	Update(ctx context.Context, member models.Member) error
	Delete(ctx context.Context, id string) error
}
