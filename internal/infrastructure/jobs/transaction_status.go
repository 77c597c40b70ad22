package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"smartcontract-gateway.backend/internal/domain/entities"
	"smartcontract-gateway.backend/pkg/logger"
)

const defaultBatchSize = 100

type transactionRefresher interface {
	ListPendingTransactions(ctx context.Context, after uuid.UUID, limit int) ([]*entities.ContractTransaction, error)
	RefreshTransactionStatus(ctx context.Context, contractID uuid.UUID, txHash string) (*entities.ContractTransaction, error)
}

// TransactionStatusJob settles pending transactions from their receipts.
// Each tick checks one batch and the next tick resumes after it, wrapping
// to the start once a short batch is seen.
type TransactionStatusJob struct {
	refresher transactionRefresher
	interval  time.Duration
	batchSize int
	cursor    uuid.UUID
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewTransactionStatusJob(refresher transactionRefresher, interval time.Duration) *TransactionStatusJob {
	return &TransactionStatusJob{
		refresher: refresher,
		interval:  interval,
		batchSize: defaultBatchSize,
		stop:      make(chan struct{}),
	}
}

func (j *TransactionStatusJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting transaction status job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Transaction status job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Transaction status job stopped")
			return
		case <-ticker.C:
			j.processPending(ctx)
		}
	}
}

func (j *TransactionStatusJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *TransactionStatusJob) processPending(ctx context.Context) {
	pending, err := j.refresher.ListPendingTransactions(ctx, j.cursor, j.batchSize)
	if err != nil {
		logger.Error(ctx, "Error fetching pending transactions", zap.Error(err))
		return
	}
	if len(pending) < j.batchSize {
		j.cursor = uuid.Nil
	} else {
		j.cursor = pending[len(pending)-1].ID
	}
	if len(pending) == 0 {
		return
	}

	settled := 0
	for _, tx := range pending {
		updated, err := j.refresher.RefreshTransactionStatus(ctx, tx.ContractID, tx.TxHash)
		if err != nil {
			logger.Warn(ctx, "Failed to refresh transaction",
				zap.String("txHash", tx.TxHash),
				zap.String("contractId", tx.ContractID.String()),
				zap.Error(err),
			)
			continue
		}
		if updated.Status != entities.ContractTransactionStatusPending {
			settled++
		}
	}

	if settled > 0 {
		logger.Info(ctx, "Settled pending transactions", zap.Int("settled", settled), zap.Int("checked", len(pending)))
	}
}
