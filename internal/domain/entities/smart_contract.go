package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SmartContract represents a registered deployed contract and its ABI
type SmartContract struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	ChainID         string          `json:"chainId"` // CAIP-2 format: namespace:chainId
	ContractAddress string          `json:"contractAddress"`
	ABI             json.RawMessage `json:"abi"`
	Tags            []string        `json:"tags"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	DeletedAt       null.Time       `json:"-"`
}

// CreateSmartContractInput represents input for registering a smart contract
type CreateSmartContractInput struct {
	Name            string          `json:"name" binding:"required,min=1,max=100"`
	ChainID         string          `json:"chainId" binding:"required"`
	ContractAddress string          `json:"contractAddress" binding:"required"`
	ABI             json.RawMessage `json:"abi" binding:"required"`
	Tags            []string        `json:"tags"`
}

// FunctionArgument describes one input or output of a contract function
type FunctionArgument struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ContractFunction is the public view of one callable ABI function
type ContractFunction struct {
	Name            string             `json:"name"`
	Signature       string             `json:"signature"`
	Selector        string             `json:"selector"`
	StateMutability string             `json:"stateMutability"`
	Constant        bool               `json:"constant"`
	Payable         bool               `json:"payable"`
	Inputs          []FunctionArgument `json:"inputs"`
	Outputs         []FunctionArgument `json:"outputs"`
}
