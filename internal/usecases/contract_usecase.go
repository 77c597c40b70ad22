package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"smartcontract-gateway.backend/internal/contract"
	"smartcontract-gateway.backend/internal/domain/entities"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
	"smartcontract-gateway.backend/internal/domain/repositories"
	"smartcontract-gateway.backend/pkg/logger"
	"smartcontract-gateway.backend/pkg/utils"
)

// ContractUsecaseConfig holds the optional collaborators of ContractUsecase.
type ContractUsecaseConfig struct {
	// Signer sends transactions. Nil disables the transact endpoints.
	Signer          contract.Wallet
	Metrics         *contract.Metrics
	CacheSize       int
	DefaultBlockTag contract.BlockTag
}

// ContractUsecase handles contract registration and execution
type ContractUsecase struct {
	contractRepo repositories.SmartContractRepository
	txRepo       repositories.ContractTransactionRepository
	uow          repositories.UnitOfWork
	chains       ChainClientResolver
	resolver     *ContractResolver
	signer       contract.Wallet
	defaultBlock contract.BlockTag
}

// NewContractUsecase creates a new contract usecase
func NewContractUsecase(
	contractRepo repositories.SmartContractRepository,
	txRepo repositories.ContractTransactionRepository,
	uow repositories.UnitOfWork,
	chains ChainClientResolver,
	cfg ContractUsecaseConfig,
) (*ContractUsecase, error) {
	resolver, err := NewContractResolver(contractRepo, chains, cfg.Metrics, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &ContractUsecase{
		contractRepo: contractRepo,
		txRepo:       txRepo,
		uow:          uow,
		chains:       chains,
		resolver:     resolver,
		signer:       cfg.Signer,
		defaultBlock: cfg.DefaultBlockTag,
	}, nil
}

// RegisterContract validates and stores a contract. The ABI must parse into
// a function table and the chain must have a configured node.
func (u *ContractUsecase) RegisterContract(ctx context.Context, input *entities.CreateSmartContractInput) (*entities.SmartContract, error) {
	chainID, err := CanonicalChainID(input.ChainID)
	if err != nil {
		return nil, err
	}
	if !u.chains.Supports(chainID) {
		return nil, fmt.Errorf("%w: %s has no configured rpc url", domainerrors.ErrUnsupportedChain, chainID)
	}

	address, err := contract.CanonicalAddress(input.ContractAddress)
	if err != nil {
		return nil, err
	}

	definition, err := abiDocument(input.ABI)
	if err != nil {
		return nil, err
	}
	if _, err := contract.ParseFunctionTable(definition); err != nil {
		return nil, err
	}

	record := &entities.SmartContract{
		Name:            strings.TrimSpace(input.Name),
		ChainID:         chainID,
		ContractAddress: address,
		ABI:             json.RawMessage(definition),
		Tags:            input.Tags,
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		existing, err := u.contractRepo.GetByChainAndAddress(txCtx, chainID, address)
		if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s is already registered on %s", domainerrors.ErrAlreadyExists, address, chainID)
		}
		return u.contractRepo.Create(txCtx, record)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Contract registered",
		zap.String("id", record.ID.String()),
		zap.String("chain_id", chainID),
		zap.String("address", address),
	)
	return record, nil
}

// GetContract returns a registered contract
func (u *ContractUsecase) GetContract(ctx context.Context, id uuid.UUID) (*entities.SmartContract, error) {
	return u.contractRepo.GetByID(ctx, id)
}

// ListContracts lists registered contracts, optionally on one chain
func (u *ContractUsecase) ListContracts(ctx context.Context, chainID string, pagination utils.PaginationParams) ([]*entities.SmartContract, int64, error) {
	var filter *string
	if strings.TrimSpace(chainID) != "" {
		canonical, err := CanonicalChainID(chainID)
		if err != nil {
			return nil, 0, err
		}
		filter = &canonical
	}
	return u.contractRepo.GetFiltered(ctx, filter, pagination)
}

// DeleteContract soft deletes a contract and drops its cached function table
func (u *ContractUsecase) DeleteContract(ctx context.Context, id uuid.UUID) error {
	if err := u.contractRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	u.resolver.Evict(id)
	return nil
}

// ListFunctions returns the callable functions of a contract ordered by name
func (u *ContractUsecase) ListFunctions(ctx context.Context, id uuid.UUID) ([]entities.ContractFunction, error) {
	record, err := u.contractRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	table, err := contract.ParseFunctionTable(string(record.ABI))
	if err != nil {
		return nil, err
	}

	sorted := table.Sorted()
	functions := make([]entities.ContractFunction, 0, len(sorted))
	for _, fn := range sorted {
		functions = append(functions, DescribeFunction(fn))
	}
	return functions, nil
}

// CallFunction executes a constant function and returns its normalized outputs
func (u *ContractUsecase) CallFunction(ctx context.Context, id uuid.UUID, input *entities.CallFunctionInput) (*entities.CallFunctionResult, error) {
	bound, err := u.resolver.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	params, err := u.buildParams(bound, input.Function, input.Args)
	if err != nil {
		return nil, err
	}

	opts := contract.CallOptions{From: strings.TrimSpace(input.From), Block: u.defaultBlock}
	if opts.Gas, err = parseQuantity("gas", input.Gas); err != nil {
		return nil, err
	}
	if opts.GasPrice, err = parseQuantity("gasPrice", input.GasPrice); err != nil {
		return nil, err
	}
	if opts.Value, err = parseQuantity("value", input.Value); err != nil {
		return nil, err
	}
	if input.BlockTag != "" {
		if opts.Block, err = contract.ParseBlockTag(input.BlockTag); err != nil {
			return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidInput, err)
		}
	}

	result, err := bound.contract.ExecuteConstantFunction(ctx, input.Function, params, opts)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(result))
	for i, v := range result {
		values[i] = jsonValue(v)
	}
	return &entities.CallFunctionResult{Function: input.Function, Result: values}, nil
}

// SendFunction signs and sends a transaction with the configured signer and
// records it as PENDING. When the send succeeds but recording fails, the
// unsaved record is returned together with ErrTxNotRecorded.
func (u *ContractUsecase) SendFunction(ctx context.Context, id uuid.UUID, input *entities.SendFunctionInput) (*entities.ContractTransaction, error) {
	if u.signer == nil {
		return nil, domainerrors.ErrSignerNotConfigured
	}

	bound, err := u.resolver.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	params, err := u.buildParams(bound, input.Function, input.Args)
	if err != nil {
		return nil, err
	}

	var opts contract.TxOptions
	if opts.Nonce, err = parseQuantity("nonce", input.Nonce); err != nil {
		return nil, err
	}
	if opts.Gas, err = parseQuantity("gas", input.Gas); err != nil {
		return nil, err
	}
	if opts.GasPrice, err = parseQuantity("gasPrice", input.GasPrice); err != nil {
		return nil, err
	}
	if opts.Value, err = parseQuantity("value", input.Value); err != nil {
		return nil, err
	}

	txHash, err := bound.contract.ExecuteFunction(ctx, input.Function, u.signer, params, opts)
	if err != nil {
		return nil, err
	}

	args, err := json.Marshal(input.Args)
	if err != nil || input.Args == nil {
		args = []byte("[]")
	}

	record := &entities.ContractTransaction{
		ContractID:  id,
		Function:    input.Function,
		Args:        args,
		FromAddress: u.signer.Address(),
		TxHash:      txHash,
		Status:      entities.ContractTransactionStatusPending,
	}
	if opts.Nonce != nil {
		record.Nonce = null.StringFrom(opts.Nonce.String())
	}
	if opts.Value != nil {
		record.Value = null.StringFrom(opts.Value.String())
	}

	if err := u.txRepo.Create(ctx, record); err != nil {
		logger.Error(ctx, "Failed to record sent transaction",
			zap.String("tx_hash", txHash),
			zap.String("contract_id", id.String()),
			zap.Error(err),
		)
		return record, fmt.Errorf("%w: %s", domainerrors.ErrTxNotRecorded, txHash)
	}

	logger.Info(ctx, "Transaction sent",
		zap.String("tx_hash", txHash),
		zap.String("function", input.Function),
		zap.String("contract", bound.contract.Address()),
	)
	return record, nil
}

// ListTransactions lists transactions sent to a contract, newest first
func (u *ContractUsecase) ListTransactions(ctx context.Context, id uuid.UUID, pagination utils.PaginationParams) ([]*entities.ContractTransaction, int64, error) {
	if _, err := u.contractRepo.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}
	return u.txRepo.ListByContract(ctx, id, pagination)
}

// RefreshTransactionStatus updates a PENDING transaction from its receipt.
// A transaction without a receipt stays PENDING.
func (u *ContractUsecase) RefreshTransactionStatus(ctx context.Context, id uuid.UUID, txHash string) (*entities.ContractTransaction, error) {
	record, err := u.txRepo.GetByHash(ctx, id, txHash)
	if err != nil {
		return nil, err
	}
	if record.Status != entities.ContractTransactionStatusPending {
		return record, nil
	}

	bound, err := u.resolver.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	receipt, err := bound.client.GetTransactionReceipt(ctx, record.TxHash)
	if errors.Is(err, ethereum.NotFound) {
		return record, nil
	}
	if err != nil {
		return nil, domainerrors.BadGateway(err)
	}

	status := entities.ContractTransactionStatusFailed
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = entities.ContractTransactionStatusConfirmed
	}
	var blockNumber null.Int64
	if receipt.BlockNumber != nil {
		blockNumber = null.Int64From(receipt.BlockNumber.Int64())
	}

	if err := u.txRepo.UpdateStatus(ctx, record.ID, status, blockNumber); err != nil {
		return nil, err
	}
	record.Status = status
	record.BlockNumber = blockNumber
	return record, nil
}

// ListPendingTransactions lists submitted transactions without a receipt yet,
// starting after the given cursor
func (u *ContractUsecase) ListPendingTransactions(ctx context.Context, after uuid.UUID, limit int) ([]*entities.ContractTransaction, error) {
	return u.txRepo.ListPending(ctx, after, limit)
}

func (u *ContractUsecase) buildParams(bound *boundContract, name string, args []interface{}) ([]contract.Param, error) {
	fn, ok := bound.contract.Function(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnknownFunction, name)
	}
	if args == nil {
		args = []interface{}{}
	}
	return contract.ParamsFromJSON(fn, args)
}

// abiDocument accepts an ABI as a JSON array or as a JSON string holding one.
func abiDocument(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var embedded string
		if err := json.Unmarshal([]byte(trimmed), &embedded); err != nil {
			return "", fmt.Errorf("%w: %v", domainerrors.ErrInvalidAbiDocument, err)
		}
		trimmed = strings.TrimSpace(embedded)
	}
	if trimmed == "" {
		return "", fmt.Errorf("%w: abi is required", domainerrors.ErrInvalidAbiDocument)
	}
	return trimmed, nil
}

// parseQuantity reads an optional non-negative decimal or 0x-hex integer.
func parseQuantity(field, raw string) (*big.Int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(value, 0)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer, got %q", domainerrors.ErrInvalidInput, field, raw)
	}
	return n, nil
}

// DescribeFunction renders the public view of fn. Legacy ABIs without
// stateMutability get one derived from the constant and payable flags.
func DescribeFunction(fn *contract.Function) entities.ContractFunction {
	method := fn.Method
	mutability := method.StateMutability
	if mutability == "" {
		switch {
		case method.IsConstant():
			mutability = "view"
		case method.IsPayable():
			mutability = "payable"
		default:
			mutability = "nonpayable"
		}
	}

	return entities.ContractFunction{
		Name:            fn.Name,
		Signature:       fn.Signature(),
		Selector:        fn.Selector(),
		StateMutability: mutability,
		Constant:        fn.IsConstant(),
		Payable:         method.IsPayable(),
		Inputs:          toFunctionArguments(method.Inputs),
		Outputs:         toFunctionArguments(method.Outputs),
	}
}

func toFunctionArguments(args abi.Arguments) []entities.FunctionArgument {
	out := make([]entities.FunctionArgument, 0, len(args))
	for _, arg := range args {
		out = append(out, entities.FunctionArgument{Name: arg.Name, Type: arg.Type.String()})
	}
	return out
}

// jsonValue renders integers as decimal strings and byte values as hex.
// Tuples become objects keyed by component name.
func jsonValue(v interface{}) interface{} {
	switch value := v.(type) {
	case nil:
		return nil
	case *big.Int:
		if value == nil {
			return nil
		}
		return value.String()
	case common.Address:
		return value.Hex()
	case string, bool:
		return value
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()).String()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()).String()
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return common.Bytes2Hex(b)
		}
		items := make([]interface{}, rv.Len())
		for i := range items {
			items[i] = jsonValue(rv.Index(i).Interface())
		}
		return items
	case reflect.Struct:
		fields := make(map[string]interface{}, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			field := rv.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "" {
				name = lowerFirst(field.Name)
			}
			fields[name] = jsonValue(rv.Field(i).Interface())
		}
		return fields
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return jsonValue(rv.Elem().Interface())
	}
	return v
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
