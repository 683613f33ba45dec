package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	contractRemindAfterDays = 3
	contractReminderBatch   = 100
)

type ContractReminderJobParams struct {
	Logger    *logger.Logger
	Contracts contractReminder
	AfterDays int
	BatchSize int
}

type contractReminder interface {
	AwaitingReminder(ctx context.Context, asOf time.Time, afterDays, limit int) ([]models.Contract, error)
	Remind(ctx context.Context, id uuid.UUID) error
}

func NewContractReminderJob(params ContractReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Contracts == nil {
		return nil, fmt.Errorf("contract service required")
	}
	afterDays := params.AfterDays
	if afterDays <= 0 {
		afterDays = contractRemindAfterDays
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = contractReminderBatch
	}
	return &contractReminderJob{
		logg:      params.Logger,
		contracts: params.Contracts,
		afterDays: afterDays,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type contractReminderJob struct {
	logg      *logger.Logger
	contracts contractReminder
	afterDays int
	batch     int
	now       func() time.Time
}

func (j *contractReminderJob) Name() string { return "contract-reminder" }

// Run queues a reminder for each unsigned contract. One failed contract does
// not stop the rest; failures are combined into the returned error.
func (j *contractReminderJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()
	pending, err := j.contracts.AwaitingReminder(ctx, asOf, j.afterDays, j.batch)
	if err != nil {
		return fmt.Errorf("list contracts awaiting reminder: %w", err)
	}

	var errs error
	reminded := 0
	for _, contract := range pending {
		if err := j.contracts.Remind(ctx, contract.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remind contract %s: %w", contract.ID, err))
			continue
		}
		reminded++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"after_days": j.afterDays,
		"pending":    len(pending),
		"reminded":   reminded,
	})
	j.logg.Info(logCtx, "contract reminder sweep complete")
	return errs
}
