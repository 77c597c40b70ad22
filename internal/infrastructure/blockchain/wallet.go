package blockchain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"smartcontract-gateway.backend/internal/contract"
)

// Signer is a wallet that can sign transactions for a chain.
type Signer interface {
	contract.Wallet
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeyWallet signs with an in-memory secp256k1 private key.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Signer = (*KeyWallet)(nil)

// NewKeyWallet parses a hex private key, with or without 0x prefix.
func NewKeyWallet(hexKey string) (*KeyWallet, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("private key is empty")
	}
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &KeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the checksummed sender address.
func (w *KeyWallet) Address() string {
	return w.address.Hex()
}

// SignTx signs tx with the latest signer for chainID.
func (w *KeyWallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if chainID == nil {
		return nil, fmt.Errorf("chain id is required")
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
}
