package services

import (
	"context"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/erp"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

// Target is the reconciliation path of a record.
type Target string

const (
	TargetEmployee     Target = "employee"
	TargetCustomerLead Target = "customerLead"
)

// Route is the outcome of identity resolution. Existing is nil on the create path.
type Route struct {
	Target     Target
	Stage      models.Stage
	Collection string
	Key        int64
	Existing   models.PersonRecord
}

// IsCreate reports whether no stored record was found.
func (r *Route) IsCreate() bool {
	return r.Existing == nil
}

// IdentityResolver finds the stored counterpart of an incoming record.
type IdentityResolver struct {
	store ports.DocumentStore
}

// NewIdentityResolver creates a new IdentityResolver
func NewIdentityResolver(store ports.DocumentStore) *IdentityResolver {
	return &IdentityResolver{store: store}
}

// CollectionFor returns the collection holding records of a stage.
func CollectionFor(stage models.Stage) string {
	if stage.IsEmployee() {
		return constants.CollectionEmployees
	}
	return constants.CollectionCustomerLeads
}

// Route picks the employee or customer-lead path from the type hint and
// loads the stored record by primary key. A missing record is not an error;
// a stored record that cannot be decoded is a ReconciliationFailedError.
func (r *IdentityResolver) Route(ctx context.Context, record erp.NormalizedRecord, typeHint string) (*Route, error) {
	stage, err := models.ParseStage(typeHint)
	if err != nil {
		return nil, err
	}

	key := record.Identity(constants.FieldID)
	if key <= 0 {
		return nil, errors.NewValidationError(constants.FieldID, "record has no usable primary key")
	}

	route := &Route{
		Target:     TargetCustomerLead,
		Stage:      stage,
		Collection: CollectionFor(stage),
		Key:        key,
	}
	if stage.IsEmployee() {
		route.Target = TargetEmployee
	}

	doc, err := r.store.FindByKey(ctx, route.Collection, key, nil)
	if err != nil {
		return nil, errors.NewReconciliationFailedError(key, fmt.Errorf("lookup failed: %w", err))
	}
	if doc == nil {
		log.WithFields(log.Fields{"collection": route.Collection, "id": key}).Debug("No stored record, creating")
		return route, nil
	}

	existing, err := decodePerson(stage, doc)
	if err != nil {
		// Overwriting would drop the soft-deleted addresses we cannot read.
		return nil, errors.NewReconciliationFailedError(key, fmt.Errorf("stored record is unreadable: %w", err))
	}
	route.Existing = existing
	return route, nil
}

func decodePerson(stage models.Stage, doc ports.Document) (models.PersonRecord, error) {
	if stage.IsEmployee() {
		return models.EmployeeFromDocument(doc)
	}
	return models.CustomerLeadFromDocument(doc)
}

// parseKey converts a path parameter into a primary key.
func parseKey(raw string) (int64, error) {
	key, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || key <= 0 {
		return 0, errors.NewValidationError(constants.FieldID, fmt.Sprintf("invalid id %q", raw))
	}
	return key, nil
}
