package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"smartcontract-gateway.backend/internal/domain/entities"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
	"smartcontract-gateway.backend/internal/interfaces/http/middleware"
	"smartcontract-gateway.backend/internal/interfaces/http/response"
	"smartcontract-gateway.backend/internal/usecases"
	"smartcontract-gateway.backend/pkg/utils"
)

type contractService interface {
	RegisterContract(ctx context.Context, input *entities.CreateSmartContractInput) (*entities.SmartContract, error)
	GetContract(ctx context.Context, id uuid.UUID) (*entities.SmartContract, error)
	ListContracts(ctx context.Context, chainID string, pagination utils.PaginationParams) ([]*entities.SmartContract, int64, error)
	DeleteContract(ctx context.Context, id uuid.UUID) error
	ListFunctions(ctx context.Context, id uuid.UUID) ([]entities.ContractFunction, error)
	CallFunction(ctx context.Context, id uuid.UUID, input *entities.CallFunctionInput) (*entities.CallFunctionResult, error)
	SendFunction(ctx context.Context, id uuid.UUID, input *entities.SendFunctionInput) (*entities.ContractTransaction, error)
	ListTransactions(ctx context.Context, id uuid.UUID, pagination utils.PaginationParams) ([]*entities.ContractTransaction, int64, error)
	RefreshTransactionStatus(ctx context.Context, id uuid.UUID, txHash string) (*entities.ContractTransaction, error)
}

// ContractHandler handles contract registry and execution endpoints
type ContractHandler struct {
	usecase contractService
}

// NewContractHandler creates a new contract handler
func NewContractHandler(usecase *usecases.ContractUsecase) *ContractHandler {
	return &ContractHandler{usecase: usecase}
}

// RegisterContract registers a contract and its ABI
// POST /api/v1/contracts
func (h *ContractHandler) RegisterContract(c *gin.Context) {
	var input entities.CreateSmartContractInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	contract, err := h.usecase.RegisterContract(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"contract": contract})
}

// GetContract gets a contract by ID
// GET /api/v1/contracts/:id
func (h *ContractHandler) GetContract(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	contract, err := h.usecase.GetContract(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contract": contract})
}

// ListContracts lists registered contracts
// GET /api/v1/contracts?chainId=eip155:8453&page=1&limit=20
func (h *ContractHandler) ListContracts(c *gin.Context) {
	pagination := utils.ParsePagination(c.Query("page"), c.Query("limit"))

	contracts, totalCount, err := h.usecase.ListContracts(c.Request.Context(), c.Query("chainId"), pagination)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"items": contracts,
		"meta":  utils.CalculateMeta(totalCount, pagination.Page, pagination.Limit),
	})
}

// DeleteContract soft deletes a contract
// DELETE /api/v1/contracts/:id
func (h *ContractHandler) DeleteContract(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if err := h.usecase.DeleteContract(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Contract deleted successfully"})
}

// ListFunctions lists the callable functions of a contract
// GET /api/v1/contracts/:id/functions
func (h *ContractHandler) ListFunctions(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	functions, err := h.usecase.ListFunctions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"items": functions})
}

// CallFunction executes a constant function
// POST /api/v1/contracts/:id/call
func (h *ContractHandler) CallFunction(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	var input entities.CallFunctionInput
	if err := bindPreservingNumbers(c, &input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.usecase.CallFunction(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, domainerrors.FromContractError(err))
		return
	}

	response.Success(c, http.StatusOK, result)
}

// SendFunction signs and sends a transaction with the gateway wallet
// POST /api/v1/contracts/:id/transact
func (h *ContractHandler) SendFunction(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	var input entities.SendFunctionInput
	if err := bindPreservingNumbers(c, &input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	tx, err := h.usecase.SendFunction(c.Request.Context(), id, &input)
	if tx != nil {
		middleware.MarkCommitted(c)
	}
	if errors.Is(err, domainerrors.ErrTxNotRecorded) && tx != nil {
		response.Success(c, http.StatusAccepted, gin.H{
			"txHash":      tx.TxHash,
			"transaction": tx,
			"warning":     err.Error(),
		})
		return
	}
	if err != nil {
		response.Error(c, domainerrors.FromContractError(err))
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"txHash":      tx.TxHash,
		"transaction": tx,
	})
}

// ListTransactions lists transactions sent to a contract
// GET /api/v1/contracts/:id/transactions
func (h *ContractHandler) ListTransactions(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	pagination := utils.ParsePagination(c.Query("page"), c.Query("limit"))

	txs, totalCount, err := h.usecase.ListTransactions(c.Request.Context(), id, pagination)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"items": txs,
		"meta":  utils.CalculateMeta(totalCount, pagination.Page, pagination.Limit),
	})
}

// GetTransaction refreshes a sent transaction from its receipt
// GET /api/v1/contracts/:id/transactions/:txHash
func (h *ContractHandler) GetTransaction(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	tx, err := h.usecase.RefreshTransactionStatus(c.Request.Context(), id, c.Param("txHash"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transaction": tx})
}

func contractID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.ParseUUID(c.Param("id"))
	if !ok {
		response.Error(c, domainerrors.BadRequest("Invalid contract ID"))
		return uuid.Nil, false
	}
	return id, true
}

// bindPreservingNumbers decodes JSON keeping numbers as json.Number so
// uint256 arguments are not rounded through float64.
func bindPreservingNumbers(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil {
		return fmt.Errorf("request body is required")
	}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	if err := decoder.Decode(obj); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return binding.Validator.ValidateStruct(obj)
}
