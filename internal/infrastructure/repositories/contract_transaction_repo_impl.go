package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"smartcontract-gateway.backend/internal/domain/entities"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
	"smartcontract-gateway.backend/internal/infrastructure/models"
	"smartcontract-gateway.backend/pkg/utils"
)

// ContractTransactionRepository implements submitted transaction data operations
type ContractTransactionRepository struct {
	db *gorm.DB
}

// NewContractTransactionRepository creates a new contract transaction repository
func NewContractTransactionRepository(db *gorm.DB) *ContractTransactionRepository {
	return &ContractTransactionRepository{db: db}
}

// Create records a submitted transaction
func (r *ContractTransactionRepository) Create(ctx context.Context, tx *entities.ContractTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = utils.GenerateUUIDv7()
	}
	if tx.Status == "" {
		tx.Status = entities.ContractTransactionStatusPending
	}
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	args := string(tx.Args)
	if args == "" {
		args = "[]"
	}

	m := &models.ContractTransaction{
		ID:          tx.ID,
		ContractID:  tx.ContractID,
		Function:    tx.Function,
		Args:        args,
		FromAddress: tx.FromAddress,
		TxHash:      tx.TxHash,
		Nonce:       tx.Nonce.Ptr(),
		Value:       tx.Value.Ptr(),
		Status:      string(tx.Status),
		BlockNumber: tx.BlockNumber.Ptr(),
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
	return GetDB(ctx, r.db).WithContext(ctx).Omit("Contract").Create(m).Error
}

// GetByHash gets a transaction of a contract by hash
func (r *ContractTransactionRepository) GetByHash(ctx context.Context, contractID uuid.UUID, txHash string) (*entities.ContractTransaction, error) {
	var m models.ContractTransaction
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("contract_id = ? AND LOWER(tx_hash) = LOWER(?)", contractID, txHash).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListByContract lists transactions of a contract, newest first
func (r *ContractTransactionRepository) ListByContract(ctx context.Context, contractID uuid.UUID, pagination utils.PaginationParams) ([]*entities.ContractTransaction, int64, error) {
	var ms []models.ContractTransaction
	var totalCount int64

	query := GetDB(ctx, r.db).WithContext(ctx).Model(&models.ContractTransaction{}).
		Where("contract_id = ?", contractID)

	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	if err := query.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	txs := make([]*entities.ContractTransaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, r.toEntity(&ms[i]))
	}
	return txs, totalCount, nil
}

// UpdateStatus sets the receipt outcome of a transaction
func (r *ContractTransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.ContractTransactionStatus, blockNumber null.Int64) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.ContractTransaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(status),
			"block_number": blockNumber.Ptr(),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ListPending lists transactions still awaiting a receipt whose contract is
// still registered, in id order starting after the given cursor. Ids are
// UUIDv7 so id order is creation order; uuid.Nil starts from the beginning.
func (r *ContractTransactionRepository) ListPending(ctx context.Context, after uuid.UUID, limit int) ([]*entities.ContractTransaction, error) {
	var ms []models.ContractTransaction
	query := GetDB(ctx, r.db).WithContext(ctx).Model(&models.ContractTransaction{}).
		Select("contract_transactions.*").
		Joins("JOIN smart_contracts ON smart_contracts.id = contract_transactions.contract_id AND smart_contracts.deleted_at IS NULL").
		Where("contract_transactions.status = ?", string(entities.ContractTransactionStatusPending))
	if after != uuid.Nil {
		query = query.Where("contract_transactions.id > ?", after)
	}
	query = query.Order("contract_transactions.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}

	txs := make([]*entities.ContractTransaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, r.toEntity(&ms[i]))
	}
	return txs, nil
}

func (r *ContractTransactionRepository) toEntity(m *models.ContractTransaction) *entities.ContractTransaction {
	return &entities.ContractTransaction{
		ID:          m.ID,
		ContractID:  m.ContractID,
		Function:    m.Function,
		Args:        []byte(m.Args),
		FromAddress: m.FromAddress,
		TxHash:      m.TxHash,
		Nonce:       null.StringFromPtr(m.Nonce),
		Value:       null.StringFromPtr(m.Value),
		Status:      entities.ContractTransactionStatus(m.Status),
		BlockNumber: null.Int64FromPtr(m.BlockNumber),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
