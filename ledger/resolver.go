package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/models"
	"github.com/tradeflowdata/exim_backend/utils"
)

// ResolvePIPOMapping computes the dispatch picture of one proforma
// invoice from the live movement tables: per-item dispatched and
// remaining quantities plus per-purchase-order contributions.
// Returns utils.ErrorRecordNotFound when the PI does not exist.
func ResolvePIPOMapping(tx *gorm.DB, logger *logrus.Logger, piId int) (*PIPOMapping, error) {
	if tx == nil {
		return nil, fmt.Errorf("resolve mapping: nil transaction handle")
	}

	var pi models.ProformaInvoice
	err := tx.Preload("Items").First(&pi, piId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	movements, err := models.GetActiveOutwardMovementsForPI(tx, piId)
	if err != nil {
		return nil, err
	}
	pos, err := models.GetPurchaseOrdersForPI(tx, piId)
	if err != nil {
		return nil, err
	}

	mapping := computePIPOMapping(&pi, movements, config.ClampNegativeRemaining())
	attachPurchaseOrders(mapping, pos)

	logger.WithFields(logrus.Fields{
		"pi_id":      piId,
		"movements":  len(movements),
		"linked_pos": len(mapping.LinkedPOs),
	}).Debug("ledger.resolve_mapping")
	return mapping, nil
}

// ResolvePIPOMappingCached serves the mapping from redis when a fresh
// copy exists, resolving and refilling on a miss. Cache failures fall
// back to a live resolve; the cache is never authoritative.
func ResolvePIPOMappingCached(ctx context.Context, db *gorm.DB, logger *logrus.Logger, piId int) (*PIPOMapping, error) {
	var cached PIPOMapping
	hit, err := utils.RetrieveMappingCache(piId, &cached)
	if err != nil {
		logger.WithFields(logrus.Fields{"pi_id": piId, "error": err.Error()}).
			Warn("ledger.mapping_cache.read_failed")
	}
	if hit {
		return &cached, nil
	}

	mapping, err := ResolvePIPOMapping(db.WithContext(ctx), logger, piId)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreMappingCache(piId, mapping); err != nil {
		logger.WithFields(logrus.Fields{"pi_id": piId, "error": err.Error()}).
			Warn("ledger.mapping_cache.write_failed")
	}
	return mapping, nil
}

// PIPOMappingEdge pairs a resolved mapping with its pagination cursor.
type PIPOMappingEdge struct {
	Node   *PIPOMapping `json:"node"`
	Cursor string       `json:"cursor"`
}

// PIPOMappingsConnection is one page of resolved mappings.
type PIPOMappingsConnection struct {
	Edges    []*PIPOMappingEdge `json:"edges"`
	PageInfo *models.PageInfo   `json:"page_info"`
}

// PaginatePIPOMappings pages proforma invoices with the usual filters and
// resolves each page entry's mapping, cache first.
func PaginatePIPOMappings(
	ctx context.Context, db *gorm.DB, logger *logrus.Logger,
	limit int, after *string,
	voucherNumber *string,
	consignee *string,
	startPiDate *time.Time,
	endPiDate *time.Time,
) (*PIPOMappingsConnection, error) {

	piEdges, pageInfo, err := models.PaginateProformaInvoice(ctx, limit, after, voucherNumber, consignee, startPiDate, endPiDate)
	if err != nil {
		return nil, err
	}

	edges := make([]*PIPOMappingEdge, 0, len(piEdges))
	for _, e := range piEdges {
		mapping, err := ResolvePIPOMappingCached(ctx, db, logger, e.Node.ID)
		if err != nil {
			return nil, err
		}
		edges = append(edges, &PIPOMappingEdge{Node: mapping, Cursor: e.Cursor})
	}

	return &PIPOMappingsConnection{Edges: edges, PageInfo: pageInfo}, nil
}
