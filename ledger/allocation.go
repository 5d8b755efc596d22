// Package ledger is the stock reconciliation core: it maintains derived
// per-batch tracking records from inward/outward movements, reverses
// outward postings, cascades tracking deletion, rebuilds tracking state
// from the movement history, and resolves PI→PO dispatch mappings.
//
// Every operation takes an explicit *gorm.DB handle and logger; the
// package holds no connection state of its own.
package ledger

import (
	"github.com/shopspring/decimal"
)

// BatchState is one tracking row's quantities as seen when planning an
// outward posting or a reversal.
type BatchState struct {
	TrackingId int
	Remaining  decimal.Decimal
	Outward    decimal.Decimal
}

// Allocation is one planned increment/decrement against a tracking row.
type Allocation struct {
	TrackingId int
	Qty        decimal.Decimal
}

// AllocateOutward plans FIFO consumption of qty across the product's
// batches (callers pass them oldest first). Each batch absorbs up to its
// remaining stock; whatever cannot be covered lands on the LAST batch so
// the posting never silently loses quantity. The ledger is advisory and
// must not block dispatch, so a batch's remaining stock may go negative.
func AllocateOutward(batches []BatchState, qty decimal.Decimal) []Allocation {
	if len(batches) == 0 || !qty.IsPositive() {
		return nil
	}

	allocations := make([]Allocation, 0, len(batches))
	left := qty
	for _, b := range batches {
		if !left.IsPositive() {
			break
		}
		if !b.Remaining.IsPositive() {
			continue
		}
		take := decimal.Min(b.Remaining, left)
		allocations = append(allocations, Allocation{TrackingId: b.TrackingId, Qty: take})
		left = left.Sub(take)
	}

	if left.IsPositive() {
		// Over-dispatch: pile the uncovered part onto the newest batch.
		last := batches[len(batches)-1]
		if n := len(allocations); n > 0 && allocations[n-1].TrackingId == last.TrackingId {
			allocations[n-1].Qty = allocations[n-1].Qty.Add(left)
		} else {
			allocations = append(allocations, Allocation{TrackingId: last.TrackingId, Qty: left})
		}
	}

	return allocations
}

// AllocateReversal plans the inverse of an outward posting: it walks the
// batches newest first and takes back at most each batch's posted outward
// quantity, so quantity_outward is floored at zero per row. Quantity that
// exceeds the total posted outward is dropped.
func AllocateReversal(batches []BatchState, qty decimal.Decimal) []Allocation {
	if len(batches) == 0 || !qty.IsPositive() {
		return nil
	}

	allocations := make([]Allocation, 0, len(batches))
	left := qty
	for i := len(batches) - 1; i >= 0; i-- {
		if !left.IsPositive() {
			break
		}
		b := batches[i]
		if !b.Outward.IsPositive() {
			continue
		}
		take := decimal.Min(b.Outward, left)
		allocations = append(allocations, Allocation{TrackingId: b.TrackingId, Qty: take})
		left = left.Sub(take)
	}

	return allocations
}

// DistributeOutward spreads a total outward quantity FIFO across per-batch
// inward totals, mirroring AllocateOutward against fresh batches. Used by
// the rebuild oracle, which recomputes outward attribution from scratch.
func DistributeOutward(inwardQtys []decimal.Decimal, total decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(inwardQtys))
	for i := range out {
		out[i] = decimal.Zero
	}
	if len(inwardQtys) == 0 || !total.IsPositive() {
		return out
	}

	left := total
	for i, inward := range inwardQtys {
		if !left.IsPositive() {
			break
		}
		if !inward.IsPositive() {
			continue
		}
		take := decimal.Min(inward, left)
		out[i] = take
		left = left.Sub(take)
	}
	if left.IsPositive() {
		out[len(out)-1] = out[len(out)-1].Add(left)
	}
	return out
}
