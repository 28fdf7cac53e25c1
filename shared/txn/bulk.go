package txn

import (
	"context"

	"conduit-blog-platform/shared/metricsx"
)

// Operation is one unit queued on a bulk coordinator.
type Operation func(ctx context.Context, uow *UnitOfWork) (any, error)

// Bulk batches logically related operations into one unit of work.
// Queued operations run in registration order; the first failure
// aborts the batch, rolls back the whole transaction and skips the
// remaining operations. A coordinator instance is not shared.
type Bulk struct {
	runner *Runner
	ops    []Operation
}

func NewBulk(runner *Runner) *Bulk {
	return &Bulk{runner: runner}
}

func (b *Bulk) Add(op Operation) {
	b.ops = append(b.ops, op)
}

func (b *Bulk) Len() int { return len(b.ops) }

// Clear empties the queue without touching any transaction.
func (b *Bulk) Clear() {
	b.ops = nil
}

// ExecuteAll runs every queued operation inside a single unit of work
// and returns their results in order. All-or-nothing: an error from
// any operation propagates unchanged and nothing is committed. The
// queue is cleared after a successful run.
func (b *Bulk) ExecuteAll(ctx context.Context) ([]any, error) {
	if len(b.ops) == 0 {
		return []any{}, nil
	}

	results, err := Execute(ctx, b.runner, "bulk_execute_all", Options{}, func(ctx context.Context, uow *UnitOfWork) ([]any, error) {
		out := make([]any, 0, len(b.ops))
		for _, op := range b.ops {
			result, err := op(ctx, uow)
			if err != nil {
				return nil, err
			}
			out = append(out, result)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	metricsx.ObserveBulkOperations(len(results))
	b.ops = nil
	return results, nil
}
