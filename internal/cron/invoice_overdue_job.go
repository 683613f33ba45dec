package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/catering-backend/pkg/logger"
)

const (
	overdueBatchSize  = 100
	overdueMaxBatches = 50
)

type InvoiceOverdueJobParams struct {
	Logger    *logger.Logger
	Invoices  overdueMarker
	BatchSize int
}

type overdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

func NewInvoiceOverdueJob(params InvoiceOverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = overdueBatchSize
	}
	return &invoiceOverdueJob{
		logg:     params.Logger,
		invoices: params.Invoices,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type invoiceOverdueJob struct {
	logg     *logger.Logger
	invoices overdueMarker
	batch    int
	now      func() time.Time
}

func (j *invoiceOverdueJob) Name() string { return "invoice-overdue" }

// Run drains overdue invoices in batches. A short batch means nothing is left.
func (j *invoiceOverdueJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()
	total := 0
	for i := 0; i < overdueMaxBatches; i++ {
		marked, err := j.invoices.MarkOverdue(ctx, asOf, j.batch)
		total += marked
		if err != nil {
			return fmt.Errorf("mark overdue invoices: %w", err)
		}
		if marked < j.batch {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":          asOf,
		"invoices_moved": total,
	})
	j.logg.Info(logCtx, "invoice overdue sweep complete")
	return nil
}
