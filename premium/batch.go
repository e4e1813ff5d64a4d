package premium

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/warp/shaho-engine/generic"
)

// DefaultBatchWorkers bounds the goroutines of a batch recompute.
const DefaultBatchWorkers = 8

// BatchEntry is the outcome for one employee of a batch recompute.
type BatchEntry struct {
	EmployeeID generic.EmployeeID
	Result     MonthlyResult
	Skip       SkipReason
}

// Computed reports whether a premium was produced.
func (b BatchEntry) Computed() bool { return b.Skip == SkipNone }

// CalculateMonthlyBatch recomputes rc.YearMonth for every employee. Each
// employee's standard monthly rewards are resolved from its history first.
// Employees are independent, so they run concurrently; entries keep the
// input order. Only context cancellation fails the batch.
func CalculateMonthlyBatch(ctx context.Context, employees []Employee, histories map[generic.EmployeeID][]RewardEntry, rc RateContext, workers int) ([]BatchEntry, error) {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	entries := make([]BatchEntry, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range employees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emp := employees[i].WithApplicableRewards(histories[employees[i].ID], rc.YearMonth)
			res, skip := CalculateMonthly(emp, rc)
			entries[i] = BatchEntry{EmployeeID: emp.ID, Result: res, Skip: skip}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
