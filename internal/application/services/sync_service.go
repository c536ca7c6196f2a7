package services

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/erp"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

// SyncService is the entry point for ERP pushes. It runs the pipeline
// normalize, extract, route, reconcile and turns store failures into soft
// failure acknowledgements.
type SyncService struct {
	table    *erp.FieldTable
	resolver *IdentityResolver
	engine   *ReconciliationEngine
	retry    ports.RetryQueue
}

// NewSyncService creates a new SyncService. retry may be nil.
func NewSyncService(table *erp.FieldTable, resolver *IdentityResolver, engine *ReconciliationEngine, retry ports.RetryQueue) *SyncService {
	return &SyncService{
		table:    table,
		resolver: resolver,
		engine:   engine,
		retry:    retry,
	}
}

// Sync reconciles one ERP record.
//
// The returned result is always set. A non-nil error means the request was
// rejected before reconciliation (unknown type, missing key); store failures
// are reported only through the result, with the key queued for retry.
func (s *SyncService) Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error) {
	logger := log.WithFields(log.Fields{"type": req.Type, "id": req.ID})

	stage, err := models.ParseStage(req.Type)
	if err != nil {
		logger.Warn("Rejecting sync with unknown record type")
		return rejected(0, err), err
	}

	record := erp.Normalize(req.Fields, s.table.Fields)
	if err := applyPathKey(record, req.ID); err != nil {
		return rejected(0, err), err
	}

	route, err := s.resolver.Route(ctx, record, req.Type)
	if err != nil {
		if _, ok := errors.AsReconciliationFailed(err); ok {
			return s.softFailure(ctx, CollectionFor(stage), record.Identity(constants.FieldID), err), nil
		}
		logger.WithError(err).Warn("Rejecting sync")
		return rejected(0, err), err
	}

	fullName := strings.TrimSpace(record.String(constants.FieldFirstName) + " " + record.String(constants.FieldLastName))
	in := Incoming{
		Record:    record,
		External:  req.Fields,
		Addresses: erp.ExtractAddresses(req.Sublists.AddressBook, s.table.Address, fullName),
		SalesTeam: erp.ExtractSalesTeam(req.Sublists.SalesTeam, s.table.SalesTeam),
	}

	if _, err := s.engine.Reconcile(ctx, route, in); err != nil {
		return s.softFailure(ctx, route.Collection, route.Key, err), nil
	}
	s.clearRetry(ctx, route.Collection, route.Key)

	log.WithFields(log.Fields{
		"collection": route.Collection,
		"id":         route.Key,
		"created":    route.IsCreate(),
		"addresses":  len(in.Addresses),
	}).Info("Synced record from ERP")

	return &models.SyncResult{Success: true, ID: route.Key, Created: route.IsCreate()}, nil
}

// SyncAs reconciles a record pushed to a type-specific endpoint. The
// stage fills in a missing type discriminant.
func (s *SyncService) SyncAs(ctx context.Context, req models.SyncRequest, stage models.Stage) (*models.SyncResult, error) {
	if strings.TrimSpace(req.Type) == "" {
		req.Type = string(stage)
		if !stage.IsEmployee() {
			if raw, ok := req.Fields.Raw(constants.FieldStage); ok && raw != "" {
				req.Type = raw
			}
		}
	}
	return s.Sync(ctx, req)
}

func (s *SyncService) softFailure(ctx context.Context, collection string, key int64, err error) *models.SyncResult {
	if _, ok := errors.AsReconciliationFailed(err); !ok {
		err = errors.NewReconciliationFailedError(key, err)
	}
	fields := log.Fields{"collection": collection, "id": key}
	log.WithError(err).WithFields(fields).Error("Failed to reconcile ERP record")

	if s.retry != nil && key > 0 {
		if qerr := s.retry.Add(ctx, ports.RetryEntry{Collection: collection, Key: key}); qerr != nil {
			log.WithError(qerr).WithFields(fields).Error("Failed to queue record for retry")
		}
	}
	return &models.SyncResult{
		Success: false,
		ID:      key,
		Code:    errors.GetErrorCode(err),
		Error:   err.Error(),
	}
}

// clearRetry drops a pending retry once the record has been reconciled.
func (s *SyncService) clearRetry(ctx context.Context, collection string, key int64) {
	if s.retry == nil {
		return
	}
	if err := s.retry.Remove(ctx, ports.RetryEntry{Collection: collection, Key: key}); err != nil {
		log.WithError(err).WithFields(log.Fields{"collection": collection, "id": key}).Warn("Failed to clear retry entry")
	}
}

func rejected(key int64, err error) *models.SyncResult {
	return &models.SyncResult{
		Success: false,
		ID:      key,
		Code:    errors.GetErrorCode(err),
		Error:   err.Error(),
	}
}

// applyPathKey fills a missing record id from the request path and
// rejects a path that names a different record.
func applyPathKey(record erp.NormalizedRecord, pathID string) error {
	pathID = strings.TrimSpace(pathID)
	if pathID == "" {
		return nil
	}
	pathKey := erp.ParseIdentity(pathID)
	key := record.Identity(constants.FieldID)
	switch {
	case key == 0 && pathKey > 0:
		record[constants.FieldID] = pathKey
	case key != 0 && pathKey != 0 && key != pathKey:
		return errors.NewValidationError(constants.FieldID, "path id does not match record id")
	}
	return nil
}
