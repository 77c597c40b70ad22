package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// ContractTransactionStatus represents the lifecycle of a submitted transaction
type ContractTransactionStatus string

const (
	ContractTransactionStatusPending   ContractTransactionStatus = "PENDING"
	ContractTransactionStatusConfirmed ContractTransactionStatus = "CONFIRMED"
	ContractTransactionStatusFailed    ContractTransactionStatus = "FAILED"
)

// ContractTransaction records a state-changing call sent through the gateway
type ContractTransaction struct {
	ID          uuid.UUID                 `json:"id"`
	ContractID  uuid.UUID                 `json:"contractId"`
	Function    string                    `json:"function"`
	Args        json.RawMessage           `json:"args"`
	FromAddress string                    `json:"fromAddress"`
	TxHash      string                    `json:"txHash"`
	Nonce       null.String               `json:"nonce"`
	Value       null.String               `json:"value"`
	Status      ContractTransactionStatus `json:"status"`
	BlockNumber null.Int64                `json:"blockNumber"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
}

// CallFunctionInput represents a read-only function call request.
// Numeric fields accept decimal or 0x-prefixed hex strings.
type CallFunctionInput struct {
	Function string        `json:"function" binding:"required"`
	Args     []interface{} `json:"args"`
	From     string        `json:"from,omitempty"`
	Gas      string        `json:"gas,omitempty"`
	GasPrice string        `json:"gasPrice,omitempty"`
	Value    string        `json:"value,omitempty"`
	BlockTag string        `json:"blockTag,omitempty"`
}

// SendFunctionInput represents a transaction request signed by the gateway wallet
type SendFunctionInput struct {
	Function string        `json:"function" binding:"required"`
	Args     []interface{} `json:"args"`
	Nonce    string        `json:"nonce,omitempty"`
	Gas      string        `json:"gas,omitempty"`
	GasPrice string        `json:"gasPrice,omitempty"`
	Value    string        `json:"value,omitempty"`
}

// CallFunctionResult is the normalized output of a read-only call
type CallFunctionResult struct {
	Function string        `json:"function"`
	Result   []interface{} `json:"result"`
}
