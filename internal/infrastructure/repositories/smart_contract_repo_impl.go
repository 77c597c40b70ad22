package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"smartcontract-gateway.backend/internal/domain/entities"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
	"smartcontract-gateway.backend/internal/infrastructure/models"
	"smartcontract-gateway.backend/pkg/utils"
)

// SmartContractRepository implements smart contract data operations
type SmartContractRepository struct {
	db *gorm.DB
}

// NewSmartContractRepository creates a new smart contract repository
func NewSmartContractRepository(db *gorm.DB) *SmartContractRepository {
	return &SmartContractRepository{db: db}
}

// Create creates a new smart contract record
func (r *SmartContractRepository) Create(ctx context.Context, contract *entities.SmartContract) error {
	if contract.ID == uuid.Nil {
		contract.ID = utils.GenerateUUIDv7()
	}
	now := time.Now()
	contract.CreatedAt = now
	contract.UpdatedAt = now

	m := &models.SmartContract{
		ID:              contract.ID,
		Name:            contract.Name,
		ChainID:         contract.ChainID,
		ContractAddress: contract.ContractAddress,
		ABI:             string(contract.ABI),
		Tags:            pq.StringArray(contract.Tags),
		CreatedAt:       contract.CreatedAt,
		UpdatedAt:       contract.UpdatedAt,
	}
	if m.Tags == nil {
		m.Tags = pq.StringArray{}
	}
	return GetDB(ctx, r.db).WithContext(ctx).Create(m).Error
}

// GetByID gets a smart contract by ID
func (r *SmartContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SmartContract, error) {
	var m models.SmartContract
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByChainAndAddress gets a smart contract by CAIP-2 chain and address
func (r *SmartContractRepository) GetByChainAndAddress(ctx context.Context, chainID, address string) (*entities.SmartContract, error) {
	var m models.SmartContract
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("chain_id = ? AND LOWER(contract_address) = LOWER(?)", chainID, address).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetFiltered lists smart contracts, newest first
func (r *SmartContractRepository) GetFiltered(ctx context.Context, chainID *string, pagination utils.PaginationParams) ([]*entities.SmartContract, int64, error) {
	var ms []models.SmartContract
	var totalCount int64

	query := GetDB(ctx, r.db).WithContext(ctx).Model(&models.SmartContract{})
	if chainID != nil && *chainID != "" {
		query = query.Where("chain_id = ?", *chainID)
	}

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

	contracts := make([]*entities.SmartContract, 0, len(ms))
	for i := range ms {
		contracts = append(contracts, r.toEntity(&ms[i]))
	}
	return contracts, totalCount, nil
}

// SoftDelete soft deletes a smart contract
func (r *SmartContractRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).Delete(&models.SmartContract{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *SmartContractRepository) toEntity(m *models.SmartContract) *entities.SmartContract {
	e := &entities.SmartContract{
		ID:              m.ID,
		Name:            m.Name,
		ChainID:         m.ChainID,
		ContractAddress: m.ContractAddress,
		ABI:             []byte(m.ABI),
		Tags:            []string(m.Tags),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if m.DeletedAt.Valid {
		e.DeletedAt = null.TimeFrom(m.DeletedAt.Time)
	}
	return e
}
