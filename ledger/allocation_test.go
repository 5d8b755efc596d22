package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestAllocateOutwardFIFO(t *testing.T) {
	batches := []BatchState{
		{TrackingId: 1, Remaining: d("10")},
		{TrackingId: 2, Remaining: d("5")},
		{TrackingId: 3, Remaining: d("20")},
	}

	allocs := AllocateOutward(batches, d("12"))
	if len(allocs) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocs))
	}
	if allocs[0].TrackingId != 1 || !allocs[0].Qty.Equal(d("10")) {
		t.Errorf("first allocation wrong: %+v", allocs[0])
	}
	if allocs[1].TrackingId != 2 || !allocs[1].Qty.Equal(d("2")) {
		t.Errorf("second allocation wrong: %+v", allocs[1])
	}
}

func TestAllocateOutwardOverdispatchLandsOnLastBatch(t *testing.T) {
	batches := []BatchState{
		{TrackingId: 1, Remaining: d("3")},
		{TrackingId: 2, Remaining: d("4")},
	}

	allocs := AllocateOutward(batches, d("10"))
	if len(allocs) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocs))
	}
	// 3 from batch 1, then 4 + the uncovered 3 on batch 2.
	if !allocs[0].Qty.Equal(d("3")) {
		t.Errorf("first allocation: got %s, want 3", allocs[0].Qty)
	}
	if allocs[1].TrackingId != 2 || !allocs[1].Qty.Equal(d("7")) {
		t.Errorf("last allocation: got %+v, want 7 on batch 2", allocs[1])
	}

	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Qty)
	}
	if !total.Equal(d("10")) {
		t.Errorf("allocations lose quantity: total %s", total)
	}
}

func TestAllocateOutwardAllBatchesDepleted(t *testing.T) {
	batches := []BatchState{
		{TrackingId: 1, Remaining: d("0")},
		{TrackingId: 2, Remaining: d("-2")},
	}

	allocs := AllocateOutward(batches, d("5"))
	if len(allocs) != 1 {
		t.Fatalf("expected the whole quantity on the last batch, got %d allocations", len(allocs))
	}
	if allocs[0].TrackingId != 2 || !allocs[0].Qty.Equal(d("5")) {
		t.Errorf("got %+v, want 5 on batch 2", allocs[0])
	}
}

func TestAllocateOutwardNoBatchesOrNoQuantity(t *testing.T) {
	if got := AllocateOutward(nil, d("5")); got != nil {
		t.Errorf("no batches should plan nothing, got %+v", got)
	}
	batches := []BatchState{{TrackingId: 1, Remaining: d("10")}}
	if got := AllocateOutward(batches, d("0")); got != nil {
		t.Errorf("zero quantity should plan nothing, got %+v", got)
	}
	if got := AllocateOutward(batches, d("-1")); got != nil {
		t.Errorf("negative quantity should plan nothing, got %+v", got)
	}
}

func TestAllocateReversalIsInverseOfPosting(t *testing.T) {
	batches := []BatchState{
		{TrackingId: 1, Remaining: d("10"), Outward: d("0")},
		{TrackingId: 2, Remaining: d("5"), Outward: d("0")},
	}

	posted := AllocateOutward(batches, d("12"))
	for _, a := range posted {
		for i := range batches {
			if batches[i].TrackingId == a.TrackingId {
				batches[i].Outward = batches[i].Outward.Add(a.Qty)
				batches[i].Remaining = batches[i].Remaining.Sub(a.Qty)
			}
		}
	}

	reversed := AllocateReversal(batches, d("12"))
	total := decimal.Zero
	byId := map[int]decimal.Decimal{}
	for _, a := range reversed {
		total = total.Add(a.Qty)
		byId[a.TrackingId] = a.Qty
	}
	if !total.Equal(d("12")) {
		t.Fatalf("reversal total %s, want 12", total)
	}
	if !byId[1].Equal(d("10")) || !byId[2].Equal(d("2")) {
		t.Errorf("reversal does not mirror posting: %+v", byId)
	}
	// Newest batch is taken back first.
	if reversed[0].TrackingId != 2 {
		t.Errorf("reversal should walk newest first, started at %d", reversed[0].TrackingId)
	}
}

func TestAllocateReversalFloorsAtPostedOutward(t *testing.T) {
	batches := []BatchState{
		{TrackingId: 1, Outward: d("4")},
		{TrackingId: 2, Outward: d("1")},
	}

	allocs := AllocateReversal(batches, d("100"))
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Qty)
	}
	if !total.Equal(d("5")) {
		t.Errorf("reversal exceeded posted outward: reversed %s, posted 5", total)
	}
}

func TestDistributeOutwardMatchesAllocateOutward(t *testing.T) {
	inwards := []decimal.Decimal{d("10"), d("5"), d("20")}

	out := DistributeOutward(inwards, d("17"))
	if !out[0].Equal(d("10")) || !out[1].Equal(d("5")) || !out[2].Equal(d("2")) {
		t.Errorf("distribution wrong: %v %v %v", out[0], out[1], out[2])
	}
}

func TestDistributeOutwardOverflowOnLast(t *testing.T) {
	inwards := []decimal.Decimal{d("10"), d("5")}

	out := DistributeOutward(inwards, d("20"))
	if !out[0].Equal(d("10")) || !out[1].Equal(d("10")) {
		t.Errorf("overflow should land on the last batch: %v %v", out[0], out[1])
	}
}

func TestDistributeOutwardZeroTotal(t *testing.T) {
	out := DistributeOutward([]decimal.Decimal{d("10")}, decimal.Zero)
	if !out[0].IsZero() {
		t.Errorf("nothing dispatched should distribute nothing, got %v", out[0])
	}
}
