package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type SmartContract struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name            string         `gorm:"type:varchar(100);not null"`
	ChainID         string         `gorm:"type:varchar(50);not null;index:idx_chain_contract"` // CAIP-2 format
	ContractAddress string         `gorm:"type:varchar(42);not null;index:idx_chain_contract"`
	ABI             string         `gorm:"type:jsonb;not null"`
	Tags            pq.StringArray `gorm:"type:text[];default:'{}'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (SmartContract) TableName() string {
	return "smart_contracts"
}
