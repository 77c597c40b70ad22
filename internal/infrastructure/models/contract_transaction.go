package models

import (
	"time"

	"github.com/google/uuid"
)

type ContractTransaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContractID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Function    string    `gorm:"type:varchar(100);not null"`
	Args        string    `gorm:"type:jsonb;not null;default:'[]'"`
	FromAddress string    `gorm:"type:varchar(42);not null"`
	TxHash      string    `gorm:"type:varchar(66);not null;uniqueIndex"`
	Nonce       *string   `gorm:"type:varchar(78)"`
	Value       *string   `gorm:"type:varchar(78)"`
	Status      string    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	BlockNumber *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Contract SmartContract `gorm:"foreignKey:ContractID;references:ID"`
}

func (ContractTransaction) TableName() string {
	return "contract_transactions"
}
