package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"smartcontract-gateway.backend/internal/contract"
	"smartcontract-gateway.backend/internal/domain/entities"
	"smartcontract-gateway.backend/internal/domain/repositories"
)

const defaultContractCacheSize = 256

// boundContract is a registered contract parsed and bound to its chain client.
type boundContract struct {
	record   *entities.SmartContract
	contract *contract.Contract
	client   ChainClient
}

// ContractResolver loads registered contracts and keeps the parsed
// function tables in an LRU keyed by contract id.
type ContractResolver struct {
	contractRepo repositories.SmartContractRepository
	chains       ChainClientResolver
	metrics      *contract.Metrics
	cache        *lru.Cache[uuid.UUID, *boundContract]
}

// NewContractResolver creates a resolver holding up to cacheSize contracts.
func NewContractResolver(
	contractRepo repositories.SmartContractRepository,
	chains ChainClientResolver,
	metrics *contract.Metrics,
	cacheSize int,
) (*ContractResolver, error) {
	if cacheSize <= 0 {
		cacheSize = defaultContractCacheSize
	}
	cache, err := lru.New[uuid.UUID, *boundContract](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create contract cache: %w", err)
	}
	return &ContractResolver{
		contractRepo: contractRepo,
		chains:       chains,
		metrics:      metrics,
		cache:        cache,
	}, nil
}

// resolve returns the bound contract for id, parsing its ABI on first use.
func (r *ContractResolver) resolve(ctx context.Context, id uuid.UUID) (*boundContract, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cached, nil
	}

	record, err := r.contractRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client, err := r.chains.Resolve(record.ChainID)
	if err != nil {
		return nil, err
	}

	c, err := contract.New(client, record.ContractAddress, string(record.ABI), contract.WithMetrics(r.metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to load contract %s: %w", id, err)
	}

	bound := &boundContract{record: record, contract: c, client: client}
	r.cache.Add(id, bound)
	return bound, nil
}

// Evict drops id from the cache.
func (r *ContractResolver) Evict(id uuid.UUID) {
	r.cache.Remove(id)
}

// Len returns the number of cached contracts.
func (r *ContractResolver) Len() int {
	return r.cache.Len()
}
