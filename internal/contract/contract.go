// Package contract resolves an ABI into callable functions and dispatches
// constant calls and transactions against a node.
//
// A Contract is immutable once built and safe for concurrent use.
package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
)

// Contract binds an ABI function table to a deployed address and the
// network used to reach it.
type Contract struct {
	network   Network
	address   string
	functions FunctionTable
	codec     Codec
	metrics   *Metrics
}

// Option customizes a Contract at construction.
type Option func(*Contract)

// WithCodec replaces the default go-ethereum ABI codec.
func WithCodec(codec Codec) Option {
	return func(c *Contract) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithMetrics records dispatch metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Contract) {
		c.metrics = m
	}
}

// New parses abiDefinition and returns a Contract for address. It fails
// without returning a partial Contract when the ABI cannot be parsed.
func New(network Network, address, abiDefinition string, opts ...Option) (*Contract, error) {
	if network == nil {
		return nil, errors.New("contract: network is required")
	}
	checksummed, err := CanonicalAddress(address)
	if err != nil {
		return nil, err
	}

	functions, err := ParseFunctionTable(abiDefinition)
	if err != nil {
		return nil, err
	}

	c := &Contract{
		network:   network,
		address:   checksummed,
		functions: functions,
		codec:     ABICodec{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CanonicalAddress validates a hex address and returns its EIP-55 form.
func CanonicalAddress(address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" || !common.IsHexAddress(trimmed) {
		return "", fmt.Errorf("%w: %q", domainerrors.ErrInvalidAddress, address)
	}
	return common.HexToAddress(trimmed).Hex(), nil
}

// Address returns the checksummed contract address.
func (c *Contract) Address() string {
	return c.address
}

// Function looks up a callable function by name.
func (c *Contract) Function(name string) (*Function, bool) {
	return c.functions.Lookup(name)
}

// Functions returns every callable function ordered by name.
func (c *Contract) Functions() []*Function {
	return c.functions.Sorted()
}

func (c *Contract) resolve(name string) (*Function, error) {
	fn, ok := c.functions.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnknownFunction, name)
	}
	return fn, nil
}
