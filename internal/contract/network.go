package contract

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Network is the node capability a Contract dispatches through.
// Implementations own transport concerns such as retries and timeouts.
type Network interface {
	// Call runs a read-only eth_call and returns the raw 0x-prefixed response.
	Call(ctx context.Context, msg CallMsg, block BlockTag) (string, error)
	// GetTransactionCount returns the sender's nonce at block. A nil count
	// with a nil error means the node answered without a usable value.
	GetTransactionCount(ctx context.Context, address string, block BlockTag) (*big.Int, error)
	// SendTransaction signs req with wallet and broadcasts it, returning the tx hash.
	SendTransaction(ctx context.Context, wallet Wallet, req TxRequest) (string, error)
}

// Wallet identifies the sender of a transaction. Signing is left to the
// Network implementation.
type Wallet interface {
	Address() string
}

// CallMsg is the payload of a constant call.
type CallMsg struct {
	From     string
	To       string
	Gas      *big.Int
	GasPrice *big.Int
	Value    *big.Int
	Data     string
}

// TxRequest is a fully resolved transaction ready to be signed and sent.
type TxRequest struct {
	To       string
	Gas      *big.Int
	GasPrice *big.Int
	Value    *big.Int
	Data     string
	Nonce    *big.Int
}

// BlockTag references a point in chain history. The zero value is "latest".
type BlockTag struct {
	name   string
	number *big.Int
}

var (
	BlockLatest   = BlockTag{name: "latest"}
	BlockEarliest = BlockTag{name: "earliest"}
	BlockPending  = BlockTag{name: "pending"}
)

// BlockNumber returns a tag pinned to a specific block height.
func BlockNumber(n uint64) BlockTag {
	return BlockTag{number: new(big.Int).SetUint64(n)}
}

// ParseBlockTag accepts latest, earliest, pending, a decimal height or a
// 0x-prefixed hex height. An empty string yields latest.
func ParseBlockTag(raw string) (BlockTag, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "", "latest":
		return BlockLatest, nil
	case "earliest":
		return BlockEarliest, nil
	case "pending":
		return BlockPending, nil
	}

	if strings.HasPrefix(value, "0x") {
		n, err := hexutil.DecodeBig(value)
		if err != nil {
			return BlockTag{}, fmt.Errorf("invalid block tag %q: %w", raw, err)
		}
		return BlockTag{number: n}, nil
	}

	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return BlockTag{}, fmt.Errorf("invalid block tag %q", raw)
	}
	return BlockNumber(n), nil
}

// String renders the tag in JSON-RPC form.
func (b BlockTag) String() string {
	if b.number != nil {
		return hexutil.EncodeBig(b.number)
	}
	if b.name == "" {
		return BlockLatest.name
	}
	return b.name
}

func (b BlockTag) orLatest() BlockTag {
	if b.name == "" && b.number == nil {
		return BlockLatest
	}
	return b
}
