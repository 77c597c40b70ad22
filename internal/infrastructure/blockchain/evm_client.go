package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"smartcontract-gateway.backend/internal/contract"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
)

var (
	dialEVMClient    = ethclient.Dial
	getClientChainID = func(client *ethclient.Client, ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	}
)

// rpcCaller is the raw JSON-RPC surface used where ethclient would lose
// the node's exact answer (eth_call hex, null transaction counts).
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// EVMClient implements contract.Network against an EVM JSON-RPC node.
type EVMClient struct {
	client  *ethclient.Client
	rpc     rpcCaller
	chainID *big.Int
	rpcURL  string
}

var _ contract.Network = (*EVMClient)(nil)

// NewEVMClient creates a new EVM client
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := getClientChainID(client, context.Background())
	if err != nil {
		return nil, err
	}

	return &EVMClient{
		client:  client,
		rpc:     client.Client(),
		chainID: chainID,
		rpcURL:  rpcURL,
	}, nil
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// RPCURL returns the endpoint the client was dialed with.
func (c *EVMClient) RPCURL() string {
	return c.rpcURL
}

// Call executes eth_call and returns the node's hex answer unchanged.
// A null result is returned as an empty string.
func (c *EVMClient) Call(ctx context.Context, msg contract.CallMsg, block contract.BlockTag) (string, error) {
	if !common.IsHexAddress(msg.To) {
		return "", fmt.Errorf("%w: %q", domainerrors.ErrInvalidAddress, msg.To)
	}

	arg := map[string]interface{}{
		"to":   common.HexToAddress(msg.To),
		"data": msg.Data,
	}
	if msg.From != "" {
		if !common.IsHexAddress(msg.From) {
			return "", fmt.Errorf("%w: from %q", domainerrors.ErrInvalidInput, msg.From)
		}
		arg["from"] = common.HexToAddress(msg.From)
	}
	if msg.Gas != nil {
		arg["gas"] = (*hexutil.Big)(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}

	var result *string
	if err := c.rpc.CallContext(ctx, &result, "eth_call", arg, block.String()); err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return *result, nil
}

// GetTransactionCount returns the account nonce at block, or nil when the
// node answers null.
func (c *EVMClient) GetTransactionCount(ctx context.Context, address string, block contract.BlockTag) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", domainerrors.ErrInvalidAddress, address)
	}

	var result *hexutil.Big
	if err := c.rpc.CallContext(ctx, &result, "eth_getTransactionCount", common.HexToAddress(address), block.String()); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.ToInt(), nil
}

// SendTransaction builds a legacy transaction from req, signs it with
// wallet and broadcasts it. Missing gas and gas price are filled from the node.
func (c *EVMClient) SendTransaction(ctx context.Context, wallet contract.Wallet, req contract.TxRequest) (string, error) {
	signer, ok := wallet.(Signer)
	if !ok || signer == nil {
		return "", domainerrors.ErrSignerNotConfigured
	}
	if !common.IsHexAddress(req.To) {
		return "", fmt.Errorf("%w: %q", domainerrors.ErrInvalidAddress, req.To)
	}
	if req.Nonce == nil || !req.Nonce.IsUint64() {
		return "", fmt.Errorf("%w: %v", domainerrors.ErrInvalidNonce, req.Nonce)
	}

	data, err := hexutil.Decode(req.Data)
	if err != nil {
		return "", fmt.Errorf("%w: call data: %v", domainerrors.ErrEncodingFailed, err)
	}

	to := common.HexToAddress(req.To)
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	gasLimit, err := c.resolveGas(ctx, signer, to, value, data, req.Gas)
	if err != nil {
		return "", err
	}
	gasPrice := req.GasPrice
	if gasPrice == nil {
		gasPrice, err = c.client.SuggestGasPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to suggest gas price: %w", err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    req.Nonce.Uint64(),
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := signer.SignTx(tx, c.chainID)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return "", err
	}
	return signed.Hash().Hex(), nil
}

func (c *EVMClient) resolveGas(ctx context.Context, signer Signer, to common.Address, value *big.Int, data []byte, gas *big.Int) (uint64, error) {
	if gas != nil {
		if !gas.IsUint64() {
			return 0, fmt.Errorf("%w: gas %s", domainerrors.ErrInvalidInput, gas)
		}
		return gas.Uint64(), nil
	}
	estimated, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  common.HexToAddress(signer.Address()),
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return estimated, nil
}

// GetTransactionReceipt gets transaction receipt. It returns
// ethereum.NotFound while the transaction is pending.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	hash := common.HexToHash(txHash)
	return c.client.TransactionReceipt(ctx, hash)
}

// GetBlockNumber gets the latest block number
func (c *EVMClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	return c.client.BlockNumber(ctx)
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
