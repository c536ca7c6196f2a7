package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/search"
)

// searchProjection is the list view of a customer lead.
var searchProjection = []string{
	constants.FieldFirstName, constants.FieldLastName, constants.FieldToken, constants.FieldMobilePhone,
	constants.FieldStage, constants.FieldEntityID, constants.FieldEntityNumber, "entitytitle",
}

// PageResult is one page of a customer search.
type PageResult struct {
	Docs        []ports.Document `json:"docs"`
	TotalDocs   int64            `json:"totalDocs"`
	HasNextPage bool             `json:"hasNextPage"`
	NextPage    *int             `json:"nextPage"`
}

// LeadIdentity is the minimal view used to sign a customer in.
type LeadIdentity struct {
	ID    int64        `json:"id"`
	Stage models.Stage `json:"stage"`
}

// CustomerService handles customer lead operations
type CustomerService struct {
	store         ports.DocumentStore
	assembler     *Assembler
	benefits      *BenefitEvaluator
	erpClient     ports.ERPClient
	searchTimeout time.Duration
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(store ports.DocumentStore, assembler *Assembler, benefits *BenefitEvaluator, erpClient ports.ERPClient, searchTimeout time.Duration) *CustomerService {
	return &CustomerService{
		store:         store,
		assembler:     assembler,
		benefits:      benefits,
		erpClient:     erpClient,
		searchTimeout: searchTimeout,
	}
}

// FindAll lists the customers of a sales rep, or searches all customers
// when query is set. The search is bounded by the search timeout.
func (s *CustomerService) FindAll(ctx context.Context, salesRepID string, page, limit int, query string) (*PageResult, error) {
	if page < 1 {
		page = constants.DefaultPage
	}
	if limit <= 0 {
		limit = constants.DefaultLimit
	}
	if limit > constants.MaxLimit {
		limit = constants.MaxLimit
	}

	var filter ports.Filter
	if terms := strings.Fields(search.Fold(query)); len(terms) > 0 {
		for _, term := range terms {
			filter = append(filter, ports.Contains(constants.FieldSearchKey, term))
		}
	} else {
		filter = ports.Filter{ports.Eq(constants.FieldSalesRepID, salesRepID)}
	}

	if s.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.searchTimeout)
		defer cancel()
	}

	docs, err := s.store.Query(ctx, constants.CollectionCustomerLeads, filter, ports.QueryOptions{
		Projection: searchProjection,
		Skip:       int64((page - 1) * limit),
		Limit:      int64(limit),
		MaxTime:    s.searchTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("customer search failed: %w", err)
	}
	total, err := s.store.Count(ctx, constants.CollectionCustomerLeads, filter)
	if err != nil {
		return nil, fmt.Errorf("customer count failed: %w", err)
	}

	if docs == nil {
		docs = []ports.Document{}
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages == 0 {
		pages = 1
	}
	result := &PageResult{Docs: docs, TotalDocs: total}
	if page < pages {
		next := page + 1
		result.HasNextPage = true
		result.NextPage = &next
	}
	return result, nil
}

// Get returns the assembled view of a customer lead
func (s *CustomerService) Get(ctx context.Context, id int64) (*models.EnrichedCustomerLead, error) {
	return s.assembler.Assemble(ctx, id)
}

// GetAddresses returns the active addresses, default shipping first.
func (s *CustomerService) GetAddresses(ctx context.Context, id int64) ([]models.Address, error) {
	lead, err := s.load(ctx, id, constants.FieldAddresses)
	if err != nil {
		return nil, err
	}
	return models.ActiveAddresses(lead.Addresses), nil
}

// DeleteAddress soft-deletes an address. The default shipping address and
// the last active address cannot be deleted.
func (s *CustomerService) DeleteAddress(ctx context.Context, customerID, addressID int64) error {
	lead, err := s.load(ctx, customerID, constants.FieldAddresses)
	if err != nil {
		return err
	}

	idx := models.FindAddress(lead.Addresses, addressID)
	if idx < 0 || lead.Addresses[idx].IsDeleted {
		return errors.NewNotFoundError("Address", strconv.FormatInt(addressID, 10))
	}
	if lead.Addresses[idx].DefaultShipping || len(models.ActiveAddresses(lead.Addresses)) < 2 {
		return errors.NewValidationError("address_id", fmt.Sprintf("the address %d can't be deleted", addressID))
	}

	lead.Addresses[idx].IsDeleted = true
	patch := ports.Document{constants.FieldAddresses: lead.Addresses}
	if err := s.store.UpsertByKey(ctx, constants.CollectionCustomerLeads, customerID, patch); err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	log.WithFields(log.Fields{"id": customerID, "address": addressID}).Info("Address soft-deleted")
	return nil
}

// GetByPhoneNumber finds a customer by mobile phone, with or without the
// US country code.
func (s *CustomerService) GetByPhoneNumber(ctx context.Context, phone string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return 0, errors.NewValidationError(constants.FieldMobilePhone, "phone number is required")
	}

	docs, err := s.store.Query(ctx, constants.CollectionCustomerLeads,
		ports.Filter{ports.In(constants.FieldMobilePhone, digits, "1"+digits)},
		ports.QueryOptions{Projection: []string{constants.FieldID}, Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, errors.NewNotFoundError("Customer", digits)
	}
	return docInt64(docs[0], constants.FieldID), nil
}

// ValidateByProperty finds a customer by mobile phone, app token or id.
func (s *CustomerService) ValidateByProperty(ctx context.Context, property, value string) (*LeadIdentity, error) {
	var doc ports.Document
	switch property {
	case constants.FieldID:
		key, err := parseKey(value)
		if err != nil {
			return nil, err
		}
		doc, err = s.store.FindByKey(ctx, constants.CollectionCustomerLeads, key, []string{constants.FieldStage})
		if err != nil {
			return nil, err
		}
	case constants.FieldMobilePhone, constants.FieldToken:
		if strings.TrimSpace(value) == "" {
			return nil, errors.NewValidationError(property, "value is required")
		}
		docs, err := s.store.Query(ctx, constants.CollectionCustomerLeads,
			ports.Filter{ports.Eq(property, value)},
			ports.QueryOptions{Projection: []string{constants.FieldStage}, Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			doc = docs[0]
		}
	default:
		return nil, errors.NewValidationError("property", fmt.Sprintf("unsupported property %q", property))
	}

	if doc == nil {
		return nil, errors.NewNotFoundError("Customer", value)
	}
	return &LeadIdentity{
		ID:    docInt64(doc, constants.FieldID),
		Stage: models.Stage(docString(doc, constants.FieldStage)),
	}, nil
}

// GetTissiniPlus summarizes the loyalty benefits of a customer.
func (s *CustomerService) GetTissiniPlus(ctx context.Context, id int64) (map[string]bool, error) {
	lead, err := s.load(ctx, id, constants.FieldHrc)
	if err != nil {
		return nil, err
	}
	return s.benefits.Evaluate(lead.Hrc)
}

// GetCaminoPlus returns the raw loyalty sub-document.
func (s *CustomerService) GetCaminoPlus(ctx context.Context, id int64) (models.HrcFlags, error) {
	lead, err := s.load(ctx, id, constants.FieldHrc)
	if err != nil {
		return nil, err
	}
	return lead.Hrc, nil
}

// UpdateTCoins merges the present t-coin counters into the loyalty sub-document.
func (s *CustomerService) UpdateTCoins(ctx context.Context, id int64, update models.TCoinsUpdate) (models.HrcFlags, error) {
	lead, err := s.load(ctx, id, constants.FieldHrc)
	if err != nil {
		return nil, err
	}
	merged, err := lead.Hrc.Merge(update.Flags())
	if err != nil {
		return nil, err
	}
	if err := s.store.UpsertByKey(ctx, constants.CollectionCustomerLeads, id, ports.Document{constants.FieldHrc: merged}); err != nil {
		return nil, fmt.Errorf("failed to update t-coins: %w", err)
	}
	return merged, nil
}

// SetRefreshToken stores or clears (empty token) the refresh token of a customer.
func (s *CustomerService) SetRefreshToken(ctx context.Context, id int64, token string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	var value interface{}
	if token != "" {
		value = token
	}
	return s.store.UpsertByKey(ctx, constants.CollectionCustomerLeads, id, ports.Document{constants.FieldRefreshToken: value})
}

// Delete removes a customer lead. This is the only hard delete.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteByKey(ctx, constants.CollectionCustomerLeads, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.NewNotFoundError("Customer", strconv.FormatInt(id, 10))
	}
	log.WithField("id", id).Info("Customer lead deleted")
	return nil
}

// CreateLead sends a new or edited lead to the ERP. A new lead is a final
// client when it names a parent; an existing lead stays one when it
// already had a parent and the payload does not set a new one.
func (s *CustomerService) CreateLead(ctx context.Context, lead map[string]interface{}) (map[string]interface{}, error) {
	values := make(ports.Document, len(lead)+1)
	for k, v := range lead {
		values[k] = v
	}

	hasNewParent := present(values["parent"])
	finalClient := hasNewParent
	if present(values[constants.FieldID]) {
		key := docInt64(values, constants.FieldID)
		doc, err := s.store.FindByKey(ctx, constants.CollectionCustomerLeads, key, []string{constants.FieldParentID})
		if err != nil {
			return nil, err
		}
		finalClient = doc != nil && present(doc[constants.FieldParentID]) && !hasNewParent
	}
	values[rawFinalClientField] = finalClient

	result, err := s.erpClient.CreateLead(ctx, values)
	if err != nil {
		log.WithError(err).Error("Failed to create lead in ERP")
		return nil, errors.NewInternalError("an error occurred while creating lead", err)
	}
	return result, nil
}

// CreateOrUpdateAddress sends an address of a customer to the ERP.
func (s *CustomerService) CreateOrUpdateAddress(ctx context.Context, customerID int64, address map[string]interface{}) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(address))
	for k, v := range address {
		values[k] = v
	}
	if !present(values["address_id"]) {
		delete(values, "address_id")
	}

	result, err := s.erpClient.CreateOrUpdateAddress(ctx, customerID, values)
	if err != nil {
		log.WithError(err).WithField("id", customerID).Error("Failed to send address to ERP")
		return nil, errors.NewInternalError("an error occurred while saving the address", err)
	}
	return result, nil
}

// Refresh asks the ERP to push a customer again.
func (s *CustomerService) Refresh(ctx context.Context, id int64) error {
	return s.erpClient.RefreshCustomer(ctx, id)
}

// load fetches a customer lead with the given attributes, or NotFound.
func (s *CustomerService) load(ctx context.Context, id int64, projection ...string) (*models.CustomerLead, error) {
	if len(projection) == 0 {
		projection = []string{constants.FieldID}
	}
	doc, err := s.store.FindByKey(ctx, constants.CollectionCustomerLeads, id, projection)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewNotFoundError("Customer", strconv.FormatInt(id, 10))
	}
	return models.CustomerLeadFromDocument(doc)
}

// present mirrors the truthiness the front end relies on.
func present(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case bool:
		return val
	case float64:
		return val != 0
	}
	return true
}
