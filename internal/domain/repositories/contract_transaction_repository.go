package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"smartcontract-gateway.backend/internal/domain/entities"
	"smartcontract-gateway.backend/pkg/utils"
)

// ContractTransactionRepository defines submitted transaction data operations
type ContractTransactionRepository interface {
	Create(ctx context.Context, tx *entities.ContractTransaction) error
	GetByHash(ctx context.Context, contractID uuid.UUID, txHash string) (*entities.ContractTransaction, error)
	ListByContract(ctx context.Context, contractID uuid.UUID, pagination utils.PaginationParams) ([]*entities.ContractTransaction, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.ContractTransactionStatus, blockNumber null.Int64) error
	ListPending(ctx context.Context, after uuid.UUID, limit int) ([]*entities.ContractTransaction, error)
}
