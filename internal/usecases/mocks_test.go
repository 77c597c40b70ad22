package usecases_test

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"smartcontract-gateway.backend/internal/contract"
	"smartcontract-gateway.backend/internal/domain/entities"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
	"smartcontract-gateway.backend/internal/usecases"
	"smartcontract-gateway.backend/pkg/utils"
)

const (
	tokenAddress  = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	signerAddress = "0x00000000000000000000000000000000000000Aa"
	holderAddress = "0x0000000000000000000000000000000000000001"
	testChainID   = "eip155:8453"
)

const tokenABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"balance","type":"uint256"}]},
	{"type":"function","name":"decimals","constant":true,"inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"deposit","payable":true,"inputs":[],"outputs":[]},
	{"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true}]}
]`

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(context.Context) error) error {
	m.Called(ctx, fn)
	return fn(ctx)
}

// Mock SmartContractRepository
type MockSmartContractRepository struct {
	mock.Mock
}

func (m *MockSmartContractRepository) Create(ctx context.Context, c *entities.SmartContract) error {
	args := m.Called(ctx, c)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockSmartContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SmartContract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SmartContract), args.Error(1)
}

func (m *MockSmartContractRepository) GetByChainAndAddress(ctx context.Context, chainID, address string) (*entities.SmartContract, error) {
	args := m.Called(ctx, chainID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SmartContract), args.Error(1)
}

func (m *MockSmartContractRepository) GetFiltered(ctx context.Context, chainID *string, pagination utils.PaginationParams) ([]*entities.SmartContract, int64, error) {
	args := m.Called(ctx, chainID, pagination)
	return args.Get(0).([]*entities.SmartContract), args.Get(1).(int64), args.Error(2)
}

func (m *MockSmartContractRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock ContractTransactionRepository
type MockContractTransactionRepository struct {
	mock.Mock
}

func (m *MockContractTransactionRepository) Create(ctx context.Context, tx *entities.ContractTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockContractTransactionRepository) GetByHash(ctx context.Context, contractID uuid.UUID, txHash string) (*entities.ContractTransaction, error) {
	args := m.Called(ctx, contractID, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ContractTransaction), args.Error(1)
}

func (m *MockContractTransactionRepository) ListByContract(ctx context.Context, contractID uuid.UUID, pagination utils.PaginationParams) ([]*entities.ContractTransaction, int64, error) {
	args := m.Called(ctx, contractID, pagination)
	return args.Get(0).([]*entities.ContractTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockContractTransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.ContractTransactionStatus, blockNumber null.Int64) error {
	args := m.Called(ctx, id, status, blockNumber)
	return args.Error(0)
}

func (m *MockContractTransactionRepository) ListPending(ctx context.Context, after uuid.UUID, limit int) ([]*entities.ContractTransaction, error) {
	args := m.Called(ctx, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ContractTransaction), args.Error(1)
}

// Mock ChainClient
type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) Call(ctx context.Context, msg contract.CallMsg, block contract.BlockTag) (string, error) {
	args := m.Called(ctx, msg, block)
	return args.String(0), args.Error(1)
}

func (m *MockChainClient) GetTransactionCount(ctx context.Context, address string, block contract.BlockTag) (*big.Int, error) {
	args := m.Called(ctx, address, block)
	count, _ := args.Get(0).(*big.Int)
	return count, args.Error(1)
}

func (m *MockChainClient) SendTransaction(ctx context.Context, wallet contract.Wallet, req contract.TxRequest) (string, error) {
	args := m.Called(ctx, wallet, req)
	return args.String(0), args.Error(1)
}

func (m *MockChainClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

// fakeChains serves one client for testChainID
type fakeChains struct {
	client usecases.ChainClient
}

func (f *fakeChains) Supports(chainID string) bool {
	return chainID == testChainID
}

func (f *fakeChains) Resolve(chainID string) (usecases.ChainClient, error) {
	if chainID != testChainID {
		return nil, domainerrors.ErrUnsupportedChain
	}
	return f.client, nil
}

type signerWallet string

func (w signerWallet) Address() string { return string(w) }

type usecaseFixture struct {
	contracts *MockSmartContractRepository
	txs       *MockContractTransactionRepository
	uow       *MockUnitOfWork
	client    *MockChainClient
	usecase   *usecases.ContractUsecase
}

func newFixture(t *testing.T, signer contract.Wallet) *usecaseFixture {
	f := &usecaseFixture{
		contracts: new(MockSmartContractRepository),
		txs:       new(MockContractTransactionRepository),
		uow:       new(MockUnitOfWork),
		client:    new(MockChainClient),
	}
	u, err := usecases.NewContractUsecase(f.contracts, f.txs, f.uow, &fakeChains{client: f.client}, usecases.ContractUsecaseConfig{
		Signer:    signer,
		CacheSize: 8,
	})
	require.NoError(t, err)
	f.usecase = u
	return f
}

func tokenRecord(id uuid.UUID) *entities.SmartContract {
	return &entities.SmartContract{
		ID:              id,
		Name:            "Token",
		ChainID:         testChainID,
		ContractAddress: tokenAddress,
		ABI:             []byte(tokenABI),
	}
}

// word left-pads a uint64 to one 32-byte ABI word.
func word(v uint64) string {
	return leftPad(new(big.Int).SetUint64(v).Text(16))
}

func leftPad(h string) string {
	return strings.Repeat("0", 64-len(h)) + h
}
