package contract_test

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/stretchr/testify/mock"
	"smartcontract-gateway.backend/internal/contract"
)

// MockNetwork
type MockNetwork struct {
	mock.Mock
}

func (m *MockNetwork) Call(ctx context.Context, msg contract.CallMsg, block contract.BlockTag) (string, error) {
	args := m.Called(ctx, msg, block)
	return args.String(0), args.Error(1)
}

func (m *MockNetwork) GetTransactionCount(ctx context.Context, address string, block contract.BlockTag) (*big.Int, error) {
	args := m.Called(ctx, address, block)
	count, _ := args.Get(0).(*big.Int)
	return count, args.Error(1)
}

func (m *MockNetwork) SendTransaction(ctx context.Context, wallet contract.Wallet, req contract.TxRequest) (string, error) {
	args := m.Called(ctx, wallet, req)
	return args.String(0), args.Error(1)
}

type testWallet string

func (w testWallet) Address() string { return string(w) }

const (
	tokenAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	holder       = "0x0000000000000000000000000000000000000001"
)

const erc20ABI = `[
	{"type":"constructor","inputs":[{"name":"supply","type":"uint256"}],"stateMutability":"nonpayable"},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}]},
	{"type":"function","name":"balanceOf","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
	{"type":"function","name":"getReserves","inputs":[],"outputs":[{"name":"reserve1","type":"uint112"},{"name":"reserve0","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}],"stateMutability":"view"},
	{"type":"function","name":"symbolHash","inputs":[],"outputs":[{"name":"hash","type":"bytes32"}],"stateMutability":"view"},
	{"type":"function","name":"approve","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"poke","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"fallback","stateMutability":"payable"}
]`

func word(n uint64) string {
	return fmt.Sprintf("%064x", n)
}

func addressWord(address string) string {
	return strings.Repeat("0", 24) + strings.ToLower(strings.TrimPrefix(address, "0x"))
}

func newTestContract(network contract.Network, opts ...contract.Option) *contract.Contract {
	c, err := contract.New(network, tokenAddress, erc20ABI, opts...)
	if err != nil {
		panic(err)
	}
	return c
}
