package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/erp"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/search"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/utils"
)

// rawFinalClientField is the ERP attribute that can veto the derived final client flag.
const rawFinalClientField = "custentity_is_final_client"

// notificationTimeout bounds fire-and-forget calls to the notification service.
const notificationTimeout = 30 * time.Second

// SalesRepCache remembers sales-rep projections between reads.
type SalesRepCache interface {
	Get(id int64) (models.EmployeeRef, bool)
	Put(ref models.EmployeeRef)
	Invalidate(id int64)
}

// Incoming is one normalized ERP record with its extracted sub-entities.
type Incoming struct {
	Record    erp.NormalizedRecord
	External  models.ExternalRecord
	Addresses []models.Address
	SalesTeam []models.SalesTeamLine
}

// ReconciliationEngine merges incoming ERP records into stored state.
type ReconciliationEngine struct {
	store       ports.DocumentStore
	table       *erp.FieldTable
	notifier    ports.Notifier
	salesReps   SalesRepCache
	frontendURL string

	async func(func())
}

// NewReconciliationEngine creates a new ReconciliationEngine. notifier and
// salesReps may be nil.
func NewReconciliationEngine(store ports.DocumentStore, table *erp.FieldTable, notifier ports.Notifier, salesReps SalesRepCache, frontendURL string) *ReconciliationEngine {
	return &ReconciliationEngine{
		store:       store,
		table:       table,
		notifier:    notifier,
		salesReps:   salesReps,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		async:       goAsync,
	}
}

func goAsync(f func()) {
	go f()
}

// Reconcile builds the record for the route, merges it with the stored
// record and upserts it by primary key. Store failures are returned as
// ReconciliationFailedError carrying the key.
func (e *ReconciliationEngine) Reconcile(ctx context.Context, route *Route, in Incoming) (models.PersonRecord, error) {
	if route.Target == TargetEmployee {
		return e.reconcileEmployee(ctx, route, in)
	}
	return e.reconcileCustomerLead(ctx, route, in)
}

func (e *ReconciliationEngine) reconcileCustomerLead(ctx context.Context, route *Route, in Incoming) (*models.CustomerLead, error) {
	attrs, hrc := e.table.Partition(in.Record)
	lead := &models.CustomerLead{
		PersonBase: basePerson(route, in.Record, attrs),
		Addresses:  mergeAddresses(nil, in.Addresses),
		SalesRepID: salesRepID(in),
		ReferredBy: in.Record.String(constants.FieldReferredBy),
		Hrc:        models.HrcFlags(hrc),
	}
	if parent := strings.TrimSpace(in.Record.String(constants.FieldParentID)); parent != "" {
		lead.ParentID = &parent
	}
	lead.IsFinalClient = isFinalClient(lead, in.External)
	lead.SearchKey = search.Key(
		lead.FirstName,
		lead.LastName,
		lead.Email,
		lead.MobilePhone,
		lead.EntityID,
		lead.Attribute(constants.FieldEntityNumber),
	)

	if existing, ok := route.Existing.(*models.CustomerLead); ok {
		lead.Addresses = mergeAddresses(existing.Addresses, in.Addresses)
		merged, err := existing.Hrc.Merge(lead.Hrc)
		if err != nil {
			log.WithError(err).WithField("id", route.Key).Warn("Replacing stored hrc flags")
		} else {
			lead.Hrc = merged
		}
	}

	if err := e.persist(ctx, route, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (e *ReconciliationEngine) reconcileEmployee(ctx context.Context, route *Route, in Incoming) (*models.Employee, error) {
	attrs, _ := e.table.Partition(in.Record)
	emp := &models.Employee{
		PersonBase: basePerson(route, in.Record, attrs),
		QueueID8x8: in.Record.String("queue_id_8x8"),
		ID8x8:      in.Record.String(constants.FieldID8x8),
		EmpStatus:  in.Record.String(constants.FieldEmpStatus),
	}

	// Session and credential fields are omitted from the patch, so an
	// update leaves them as stored.
	if route.IsCreate() {
		emp.RecoverPasswordToken = utils.GenerateToken()
		emp.UpdatedEmail = emp.Email
	}

	if err := e.persist(ctx, route, emp); err != nil {
		return nil, err
	}
	if e.salesReps != nil {
		e.salesReps.Invalidate(route.Key)
	}
	if route.IsCreate() {
		e.sendCreatePassword(emp)
	}
	return emp, nil
}

func (e *ReconciliationEngine) persist(ctx context.Context, route *Route, record models.PersonRecord) error {
	patch, err := record.ToDocument()
	if err != nil {
		return errors.NewReconciliationFailedError(route.Key, err)
	}
	if err := e.store.UpsertByKey(ctx, route.Collection, route.Key, patch); err != nil {
		return errors.NewReconciliationFailedError(route.Key, fmt.Errorf("upsert failed: %w", err))
	}
	return nil
}

func (e *ReconciliationEngine) sendCreatePassword(emp *models.Employee) {
	if e.notifier == nil || emp.Email == "" {
		return
	}
	to := emp.Email
	url := fmt.Sprintf("%s/reset-password/%s?createPassword=true", e.frontendURL, emp.RecoverPasswordToken)
	id := emp.ID
	e.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := e.notifier.Send(ctx, to, constants.TemplateCreatePassword, map[string]string{"url": url}); err != nil {
			log.WithError(err).WithField("id", id).Warn("Failed to send create-password email")
		}
	})
}

// basePerson fills the shared attributes. Email is lower-cased; an empty
// email stays empty so it is left out of the write.
func basePerson(route *Route, record erp.NormalizedRecord, attrs map[string]interface{}) models.PersonBase {
	base := models.PersonBase{
		ID:          route.Key,
		EntityID:    record.String(constants.FieldEntityID),
		FirstName:   strings.TrimSpace(record.String(constants.FieldFirstName)),
		LastName:    strings.TrimSpace(record.String(constants.FieldLastName)),
		Email:       strings.ToLower(strings.TrimSpace(record.String(constants.FieldEmail))),
		MobilePhone: record.String(constants.FieldMobilePhone),
		Stage:       route.Stage,
		IsInactive:  record.Bool("isinactive"),
		Attributes:  attrs,
	}
	base.Name = base.FullName()
	return base
}

// mergeAddresses returns the incoming addresses in input order followed by
// stored addresses the payload no longer carries. Keys deleted in storage
// stay deleted, dropped keys become deleted and duplicate keys collapse to
// their first occurrence.
func mergeAddresses(stored, incoming []models.Address) []models.Address {
	deleted := make(map[int64]bool, len(stored))
	for _, a := range stored {
		if a.IsDeleted {
			deleted[a.Key] = true
		}
	}

	out := make([]models.Address, 0, len(incoming)+len(stored))
	seen := make(map[int64]bool, len(incoming)+len(stored))
	for _, a := range incoming {
		if seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		if deleted[a.Key] {
			a.IsDeleted = true
		}
		out = append(out, a)
	}
	for _, a := range stored {
		if seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		a.IsDeleted = true
		out = append(out, a)
	}
	return out
}

// salesRepID takes the employee of the primary sales-team line, falling
// back to the flat salesrep attribute.
func salesRepID(in Incoming) string {
	if line, ok := erp.PrimarySalesRep(in.SalesTeam); ok && line.Employee != "" {
		return line.Employee
	}
	return in.Record.String("salesrep")
}

// isFinalClient is recomputed on every sync: a parent makes the lead a
// final client unless the ERP explicitly sends "F".
func isFinalClient(lead *models.CustomerLead, external models.ExternalRecord) bool {
	if !lead.HasParent() {
		return false
	}
	raw, present := external.Raw(rawFinalClientField)
	return !(present && strings.EqualFold(strings.TrimSpace(raw), "F"))
}
