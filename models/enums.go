package models

import "errors"

// MovementStatus is the lifecycle state of a movement. A movement is
// created Active and transitions to Reverted exactly once, and only
// through the reversal engine; callers never set the flag directly.
type MovementStatus string

const (
	MovementStatusActive   MovementStatus = "Active"
	MovementStatusReverted MovementStatus = "Reverted"
)

// DispatchType classifies an outward movement.
// An export invoice promoted from a dispatch plan carries the plan's id
// in DispatchPlanId so the resolver can deduplicate the pair.
type DispatchType string

const (
	DispatchTypePlan          DispatchType = "dispatch_plan"
	DispatchTypeExportInvoice DispatchType = "export_invoice"
	DispatchTypeDirectExport  DispatchType = "direct_export"
)

func (t DispatchType) Validate() error {
	switch t {
	case DispatchTypePlan, DispatchTypeExportInvoice, DispatchTypeDirectExport:
		return nil
	}
	return errors.New("invalid dispatch type")
}
