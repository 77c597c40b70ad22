package repositories

import (
	"context"

	"github.com/google/uuid"
	"smartcontract-gateway.backend/internal/domain/entities"
	"smartcontract-gateway.backend/pkg/utils"
)

// SmartContractRepository defines smart contract data operations
type SmartContractRepository interface {
	Create(ctx context.Context, contract *entities.SmartContract) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.SmartContract, error)
	GetByChainAndAddress(ctx context.Context, chainID, address string) (*entities.SmartContract, error)
	// GetFiltered lists contracts, optionally restricted to one CAIP-2 chain
	GetFiltered(ctx context.Context, chainID *string, pagination utils.PaginationParams) ([]*entities.SmartContract, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
