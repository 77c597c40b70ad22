package usecases

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/core/types"
	"smartcontract-gateway.backend/internal/contract"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
	"smartcontract-gateway.backend/internal/infrastructure/blockchain"
)

const evmNamespace = "eip155"

// ChainClient is the per-chain node surface used by the contract usecase.
type ChainClient interface {
	contract.Network
	GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error)
}

// ChainClientResolver returns the node client serving a CAIP-2 chain.
type ChainClientResolver interface {
	Supports(chainID string) bool
	Resolve(chainID string) (ChainClient, error)
}

// ChainResolver maps configured CAIP-2 chains to cached EVM clients.
type ChainResolver struct {
	rpcURLs   map[string]string
	getClient func(rpcURL string) (ChainClient, error)
}

// NewChainResolver creates a resolver over rpcURLs (keyed by CAIP-2 id).
func NewChainResolver(factory *blockchain.ClientFactory, rpcURLs map[string]string) *ChainResolver {
	urls := make(map[string]string, len(rpcURLs))
	for chainID, url := range rpcURLs {
		canonical, err := CanonicalChainID(chainID)
		if err != nil {
			continue
		}
		urls[canonical] = url
	}
	return &ChainResolver{
		rpcURLs: urls,
		getClient: func(rpcURL string) (ChainClient, error) {
			return factory.GetEVMClient(rpcURL)
		},
	}
}

// Supports reports whether chainID has a configured RPC endpoint.
func (r *ChainResolver) Supports(chainID string) bool {
	canonical, err := CanonicalChainID(chainID)
	if err != nil {
		return false
	}
	_, ok := r.rpcURLs[canonical]
	return ok
}

// Resolve returns the client for chainID.
func (r *ChainResolver) Resolve(chainID string) (ChainClient, error) {
	canonical, err := CanonicalChainID(chainID)
	if err != nil {
		return nil, err
	}
	url, ok := r.rpcURLs[canonical]
	if !ok {
		return nil, fmt.Errorf("%w: no rpc url for %s", domainerrors.ErrUnsupportedChain, canonical)
	}
	client, err := r.getClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", canonical, err)
	}
	return client, nil
}

// CanonicalChainID normalizes a chain identifier to CAIP-2. A bare
// chain number ("8453") is read as an EVM chain.
func CanonicalChainID(input string) (string, error) {
	value := strings.TrimSpace(input)
	if value == "" {
		return "", fmt.Errorf("%w: chain identifier cannot be empty", domainerrors.ErrUnsupportedChain)
	}

	reference := value
	if namespace, ref, ok := strings.Cut(value, ":"); ok {
		if strings.ToLower(namespace) != evmNamespace {
			return "", fmt.Errorf("%w: namespace %q", domainerrors.ErrUnsupportedChain, namespace)
		}
		reference = ref
	}

	n, err := strconv.ParseUint(reference, 10, 64)
	if err != nil || n == 0 {
		return "", fmt.Errorf("%w: %q", domainerrors.ErrUnsupportedChain, input)
	}
	return evmNamespace + ":" + strconv.FormatUint(n, 10), nil
}
