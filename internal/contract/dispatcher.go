package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
	"smartcontract-gateway.backend/pkg/logger"
)

// CallOptions carries the optional context of a constant call.
type CallOptions struct {
	From     string
	Gas      *big.Int
	GasPrice *big.Int
	Value    *big.Int
	Block    BlockTag
}

// TxOptions carries the parameters of a transaction. A nil Nonce is
// resolved from the node before sending.
type TxOptions struct {
	Nonce    *big.Int
	Gas      *big.Int
	GasPrice *big.Int
	Value    *big.Int
}

// CallOutcome is the single result delivered by ExecuteConstantFunctionAsync.
type CallOutcome struct {
	Result []interface{}
	Err    error
}

// TxOutcome is the single result delivered by ExecuteFunctionAsync.
type TxOutcome struct {
	TxHash string
	Err    error
}

// ExecuteConstantFunction runs a read-only call of the named function and
// returns its outputs ordered by output name.
func (c *Contract) ExecuteConstantFunction(ctx context.Context, name string, params []Param, opts CallOptions) ([]interface{}, error) {
	start := time.Now()
	result, err := c.executeConstant(ctx, name, params, opts)
	c.metrics.observeDispatch(kindCall, start, err)
	if err != nil {
		logger.Warn(ctx, "Constant call failed",
			zap.String("contract", c.address),
			zap.String("function", name),
			zap.Error(err),
		)
	}
	return result, err
}

// ExecuteConstantFunctionAsync runs ExecuteConstantFunction on its own
// goroutine. The returned channel receives exactly one outcome and is then closed.
func (c *Contract) ExecuteConstantFunctionAsync(ctx context.Context, name string, params []Param, opts CallOptions) <-chan CallOutcome {
	done := make(chan CallOutcome, 1)
	go func() {
		defer close(done)
		result, err := c.ExecuteConstantFunction(ctx, name, params, opts)
		done <- CallOutcome{Result: result, Err: err}
	}()
	return done
}

func (c *Contract) executeConstant(ctx context.Context, name string, params []Param, opts CallOptions) ([]interface{}, error) {
	fn, err := c.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := encodeCallData(c.codec, fn, params)
	if err != nil {
		return nil, err
	}

	block := opts.Block.orLatest()
	logger.Debug(ctx, "Dispatching constant call",
		zap.String("contract", c.address),
		zap.String("function", fn.Signature()),
		zap.String("block", block.String()),
	)

	response, err := c.network.Call(ctx, CallMsg{
		From:     opts.From,
		To:       c.address,
		Gas:      opts.Gas,
		GasPrice: opts.GasPrice,
		Value:    opts.Value,
		Data:     data,
	}, block)
	if err != nil {
		return nil, err
	}

	if isEmptyResponse(response) {
		if len(fn.Method.Outputs) == 0 {
			return []interface{}{}, nil
		}
		return nil, fmt.Errorf("%w: %s returned %q", domainerrors.ErrEmptyResponse, fn.Name, response)
	}

	decoded, err := decodeCallResult(c.codec, fn, response)
	if err != nil {
		return nil, err
	}
	return Normalize(decoded), nil
}

// ExecuteFunction sends a transaction calling the named function from
// wallet and returns the transaction hash. Exactly one transaction is sent
// per invocation; when opts.Nonce is nil the sender's transaction count is
// fetched first.
func (c *Contract) ExecuteFunction(ctx context.Context, name string, wallet Wallet, params []Param, opts TxOptions) (string, error) {
	start := time.Now()
	txHash, err := c.executeTransaction(ctx, name, wallet, params, opts)
	c.metrics.observeDispatch(kindTransact, start, err)
	if err != nil {
		logger.Warn(ctx, "Transaction failed",
			zap.String("contract", c.address),
			zap.String("function", name),
			zap.Error(err),
		)
	}
	return txHash, err
}

// ExecuteFunctionAsync runs ExecuteFunction on its own goroutine. The
// returned channel receives exactly one outcome and is then closed.
func (c *Contract) ExecuteFunctionAsync(ctx context.Context, name string, wallet Wallet, params []Param, opts TxOptions) <-chan TxOutcome {
	done := make(chan TxOutcome, 1)
	go func() {
		defer close(done)
		txHash, err := c.ExecuteFunction(ctx, name, wallet, params, opts)
		done <- TxOutcome{TxHash: txHash, Err: err}
	}()
	return done
}

func (c *Contract) executeTransaction(ctx context.Context, name string, wallet Wallet, params []Param, opts TxOptions) (string, error) {
	fn, err := c.resolve(name)
	if err != nil {
		return "", err
	}

	data, err := encodeCallData(c.codec, fn, params)
	if err != nil {
		return "", err
	}

	if wallet == nil {
		return "", domainerrors.ErrSignerNotConfigured
	}

	flow := newTxFlow(c, wallet, data, opts)
	return flow.run(ctx)
}

type txState int

const (
	stateNonceProvided txState = iota
	stateNonceMissing
	stateSend
	stateDone
	stateError
)

// txFlow resolves the nonce when needed and then sends once.
type txFlow struct {
	contract *Contract
	wallet   Wallet
	data     string
	opts     TxOptions

	state  txState
	nonce  *big.Int
	txHash string
	err    error
}

func newTxFlow(c *Contract, wallet Wallet, data string, opts TxOptions) *txFlow {
	state := stateNonceMissing
	if opts.Nonce != nil {
		state = stateNonceProvided
	}
	return &txFlow{
		contract: c,
		wallet:   wallet,
		data:     data,
		opts:     opts,
		state:    state,
	}
}

func (f *txFlow) run(ctx context.Context) (string, error) {
	for {
		switch f.state {
		case stateNonceProvided:
			f.nonce = f.opts.Nonce
			f.state = stateSend
		case stateNonceMissing:
			f.resolveNonce(ctx)
		case stateSend:
			f.send(ctx)
		case stateDone:
			return f.txHash, nil
		default:
			return "", f.err
		}
	}
}

func (f *txFlow) resolveNonce(ctx context.Context) {
	address := f.wallet.Address()
	count, err := f.contract.network.GetTransactionCount(ctx, address, BlockLatest)
	if err == nil && (count == nil || count.Sign() < 0) {
		err = fmt.Errorf("%w: transaction count %v for %s", domainerrors.ErrInvalidNonce, count, address)
	}
	f.contract.metrics.observeNonceFetch(err)
	if err != nil {
		f.fail(err)
		return
	}

	logger.Debug(ctx, "Resolved nonce", zap.String("from", address), zap.String("nonce", count.String()))
	f.nonce = count
	f.state = stateSend
}

func (f *txFlow) send(ctx context.Context) {
	txHash, err := f.contract.network.SendTransaction(ctx, f.wallet, TxRequest{
		To:       f.contract.address,
		Gas:      f.opts.Gas,
		GasPrice: f.opts.GasPrice,
		Value:    f.opts.Value,
		Data:     f.data,
		Nonce:    new(big.Int).Set(f.nonce),
	})
	if err != nil {
		f.fail(err)
		return
	}
	f.txHash = txHash
	f.state = stateDone
}

func (f *txFlow) fail(err error) {
	f.err = err
	f.state = stateError
}
