package services

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/erp"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

const fieldResultadoDeContacto = "resultado_de_contacto"

// detailProjection is the customer lead view sent to the front end.
var detailProjection = []string{
	constants.FieldFirstName, constants.FieldLastName, "name", constants.FieldEmail,
	constants.FieldMobilePhone, "dream", "salesrep", "store_name", "instagram", "twitter",
	"pinterest", "facebook", constants.FieldTimeZone, "birthdate", "rango_edad",
	constants.FieldAddresses, constants.FieldEntityID, "entitytitle", constants.FieldEntityNumber,
	constants.FieldToken, constants.FieldSalesRepID, "nacionalidad", "ocupacion",
	"first_child_birthdate", "first_child_name", "second_child_birthdate", "second_child_name",
	fieldResultadoDeContacto, "custentity_resultado_de_contacto_con_cli", "companyname",
	"homephone", "dream_in_money", "datecreated", "phone", constants.FieldStage, "purchase_type",
	"rma_available", "state_restriction_override", "leadsource", constants.FieldReferredBy,
	"catalyst_inboxsms_load", "catalyst_phonecall_load", "metas_hace_dos_meses",
	"metas_hace_tres_meses", "metas_mes_actual", "meses_total_acumulado", "metas_mes_anterior",
	"ship_to_walgreens", "balance", constants.FieldParentID, constants.FieldIsFinalClient,
	constants.FieldHrc,
}

// tcoinFlags are the only hrc entries shown in the detail view.
var tcoinFlags = []string{"tcoins_disponibles", "tcoins_ganados", "tcoins_gastados", "tcoins_perdidos"}

var relatedProjection = []string{constants.FieldFirstName, constants.FieldLastName, constants.FieldEntityNumber}

// Assembler builds the read-side view of a customer lead.
type Assembler struct {
	store     ports.DocumentStore
	locale    ports.LocaleHelper
	salesReps SalesRepCache
}

// NewAssembler creates a new Assembler. salesReps may be nil.
func NewAssembler(store ports.DocumentStore, locale ports.LocaleHelper, salesReps SalesRepCache) *Assembler {
	return &Assembler{store: store, locale: locale, salesReps: salesReps}
}

// Assemble loads a customer lead with its sales rep, referrer and parent.
// Dangling references resolve to nil; a missing lead is NotFound.
func (a *Assembler) Assemble(ctx context.Context, id int64) (*models.EnrichedCustomerLead, error) {
	doc, err := a.store.FindByKey(ctx, constants.CollectionCustomerLeads, id, detailProjection)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewNotFoundError("Customer", strconv.FormatInt(id, 10))
	}

	lead, err := models.CustomerLeadFromDocument(doc)
	if err != nil {
		return nil, err
	}
	lead.Addresses = models.ActiveAddresses(lead.Addresses)
	lead.Hrc = pickFlags(lead.Hrc, tcoinFlags)

	enriched := &models.EnrichedCustomerLead{
		CustomerLead:        lead,
		SalesRep:            a.salesRep(ctx, lead.SalesRepID),
		Referrer:            a.related(ctx, lead.ReferredBy),
		ResultadoDeContacto: lead.Attribute(fieldResultadoDeContacto),
	}
	if lead.HasParent() {
		enriched.Parent = a.related(ctx, *lead.ParentID)
	}
	if enriched.ResultadoDeContacto == "" {
		enriched.ResultadoDeContacto = lead.Attribute("custentity_resultado_de_contacto_con_cli")
	}
	if a.locale != nil {
		enriched.CurrentTime = a.locale.LocalTimeFor(lead.TimeZoneCode(), lead.MobilePhone)
	}
	return enriched, nil
}

func (a *Assembler) salesRep(ctx context.Context, ref string) *models.EmployeeRef {
	key := erp.ParseIdentity(ref)
	if key <= 0 {
		return nil
	}
	if a.salesReps != nil {
		if cached, ok := a.salesReps.Get(key); ok {
			return &cached
		}
	}

	doc, err := a.store.FindByKey(ctx, constants.CollectionEmployees, key, []string{constants.FieldFirstName, constants.FieldLastName})
	if err != nil {
		log.WithError(err).WithField("salesrep_id", key).Warn("Failed to resolve sales rep")
		return nil
	}
	if doc == nil {
		return nil
	}
	found := models.EmployeeRef{
		ID:        key,
		FirstName: docString(doc, constants.FieldFirstName),
		LastName:  docString(doc, constants.FieldLastName),
	}
	if a.salesReps != nil {
		a.salesReps.Put(found)
	}
	return &found
}

func (a *Assembler) related(ctx context.Context, ref string) *models.RelatedRef {
	key := erp.ParseIdentity(ref)
	if key <= 0 {
		return nil
	}
	doc, err := a.store.FindByKey(ctx, constants.CollectionCustomerLeads, key, relatedProjection)
	if err != nil {
		log.WithError(err).WithField("related_id", key).Warn("Failed to resolve related customer")
		return nil
	}
	if doc == nil {
		return nil
	}
	return &models.RelatedRef{
		ID:           key,
		FirstName:    docString(doc, constants.FieldFirstName),
		LastName:     docString(doc, constants.FieldLastName),
		EntityNumber: docString(doc, constants.FieldEntityNumber),
	}
}

func pickFlags(flags models.HrcFlags, names []string) models.HrcFlags {
	out := models.HrcFlags{}
	for _, name := range names {
		if v, ok := flags[name]; ok {
			out[name] = v
		}
	}
	return out
}

func docString(doc ports.Document, field string) string {
	switch v := doc[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func docInt64(doc ports.Document, field string) int64 {
	switch v := doc[field].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case string:
		return erp.ParseIdentity(v)
	}
	return 0
}
