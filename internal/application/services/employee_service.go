package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/auth"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/search"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/utils"
)

// leaderPrefixes select employees who lead a team.
var leaderPrefixes = []string{"lider", "jefe", "director"}

// EmployeeUpdate carries the attributes an employee may change on their
// own record. Nil fields are left untouched.
type EmployeeUpdate struct {
	FirstName   *string `json:"firstname"`
	LastName    *string `json:"lastname"`
	MobilePhone *string `json:"mobilephone"`
	Password    *string `json:"password"`
}

// EmailOwner is returned when checking who owns an email.
type EmailOwner struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Leader is an employee whose status marks them as a team lead.
type Leader struct {
	ID        int64  `json:"id"`
	EntityID  string `json:"entityid"`
	EmpStatus string `json:"emp_status"`
}

// EmployeeService handles employee credentials and lookups
type EmployeeService struct {
	store     ports.DocumentStore
	salesReps SalesRepCache
}

// NewEmployeeService creates a new EmployeeService. salesReps may be nil.
func NewEmployeeService(store ports.DocumentStore, salesReps SalesRepCache) *EmployeeService {
	return &EmployeeService{store: store, salesReps: salesReps}
}

// Validate checks an email and password pair.
func (s *EmployeeService) Validate(ctx context.Context, email, password string) (*models.Employee, error) {
	emp, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewUnauthorizedError("invalid credentials")
		}
		return nil, err
	}
	if !auth.VerifyPassword(password, emp.Password) {
		return nil, errors.NewUnauthorizedError("invalid credentials")
	}
	return emp, nil
}

// GetByEmail finds an employee by email, case-insensitively.
func (s *EmployeeService) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.NewValidationError(constants.FieldEmail, "email is required")
	}
	return s.findOne(ctx, ports.Filter{ports.Eq(constants.FieldEmail, email)}, email)
}

// Get returns an employee by id.
func (s *EmployeeService) Get(ctx context.Context, id int64) (*models.Employee, error) {
	doc, err := s.store.FindByKey(ctx, constants.CollectionEmployees, id, nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewNotFoundError("Employee", strconv.FormatInt(id, 10))
	}
	return models.EmployeeFromDocument(doc)
}

// GetBy8x8ID finds an employee by their 8x8 agent id.
func (s *EmployeeService) GetBy8x8ID(ctx context.Context, id8x8 string) (*models.Employee, error) {
	id8x8 = strings.TrimSpace(id8x8)
	if id8x8 == "" {
		return nil, errors.NewValidationError(constants.FieldID8x8, "8x8 id is required")
	}
	return s.findOne(ctx, ports.Filter{ports.Eq(constants.FieldID8x8, id8x8)}, id8x8)
}

// GetByRecoverToken finds the employee a recovery token was issued to.
func (s *EmployeeService) GetByRecoverToken(ctx context.Context, token string) (*models.Employee, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.NewUnauthorizedError("invalid token")
	}
	return s.findOne(ctx, ports.Filter{ports.Eq(constants.FieldRecoverPasswordToken, token)}, "token")
}

// CheckEmail returns the owner of an email.
func (s *EmployeeService) CheckEmail(ctx context.Context, email string) (*EmailOwner, error) {
	emp, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &EmailOwner{Email: emp.Email, FirstName: emp.FirstName, LastName: emp.LastName}, nil
}

// SetIsLoggedIn records whether the employee holds an active session.
func (s *EmployeeService) SetIsLoggedIn(ctx context.Context, id int64, loggedIn bool) error {
	return s.set(ctx, id, ports.Document{constants.FieldIsLoggedIn: loggedIn})
}

// SetRefreshToken stores or clears (empty token) the refresh token.
func (s *EmployeeService) SetRefreshToken(ctx context.Context, id int64, token string) error {
	var value interface{}
	if token != "" {
		value = token
	}
	return s.set(ctx, id, ports.Document{constants.FieldRefreshToken: value})
}

// SetRecoverToken issues a password recovery token for the owner of an email.
func (s *EmployeeService) SetRecoverToken(ctx context.Context, email string) (*models.Employee, string, error) {
	emp, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	token := utils.GenerateToken()
	if err := s.set(ctx, emp.ID, ports.Document{constants.FieldRecoverPasswordToken: token}); err != nil {
		return nil, "", err
	}
	return emp, token, nil
}

// SetPassword hashes and stores a new password and burns the recovery token.
func (s *EmployeeService) SetPassword(ctx context.Context, id int64, password string) error {
	if len(password) < 6 {
		return errors.NewValidationError(constants.FieldPassword, "password must be at least 6 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.NewInternalError("failed to hash password", err)
	}
	return s.set(ctx, id, ports.Document{
		constants.FieldPassword:             hash,
		constants.FieldRecoverPasswordToken: nil,
	})
}

// Update applies a self-service change. Employees may only edit their own record.
func (s *EmployeeService) Update(ctx context.Context, callerID, id int64, update EmployeeUpdate) (*models.Employee, error) {
	if callerID != id {
		return nil, errors.NewPermissionError("update", "employee")
	}

	patch := ports.Document{}
	if update.FirstName != nil {
		patch[constants.FieldFirstName] = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		patch[constants.FieldLastName] = strings.TrimSpace(*update.LastName)
	}
	if update.MobilePhone != nil {
		patch[constants.FieldMobilePhone] = strings.TrimSpace(*update.MobilePhone)
	}
	if update.Password != nil {
		if len(*update.Password) < 6 {
			return nil, errors.NewValidationError(constants.FieldPassword, "password must be at least 6 characters")
		}
		hash, err := auth.HashPassword(*update.Password)
		if err != nil {
			return nil, errors.NewInternalError("failed to hash password", err)
		}
		patch[constants.FieldPassword] = hash
	}

	if len(patch) > 0 {
		if err := s.set(ctx, id, patch); err != nil {
			return nil, err
		}
	}
	if s.salesReps != nil {
		s.salesReps.Invalidate(id)
	}
	return s.Get(ctx, id)
}

// AddMicrosoftGraphID links the employee to their directory account.
func (s *EmployeeService) AddMicrosoftGraphID(ctx context.Context, id int64, graphID string) error {
	if strings.TrimSpace(graphID) == "" {
		return errors.NewValidationError(constants.FieldMicrosoftGraphID, "microsoft graph id is required")
	}
	return s.set(ctx, id, ports.Document{constants.FieldMicrosoftGraphID: graphID})
}

// GetLeaders lists team leads ordered by entity id.
func (s *EmployeeService) GetLeaders(ctx context.Context) ([]Leader, error) {
	docs, err := s.store.Query(ctx, constants.CollectionEmployees,
		ports.Filter{ports.Prefix(constants.FieldEmpStatus, leaderPrefixes...)},
		ports.QueryOptions{Projection: []string{constants.FieldEmpStatus, constants.FieldEntityID}})
	if err != nil {
		return nil, fmt.Errorf("failed to list leaders: %w", err)
	}

	leaders := make([]Leader, 0, len(docs))
	for _, doc := range docs {
		leaders = append(leaders, Leader{
			ID:        docInt64(doc, constants.FieldID),
			EntityID:  docString(doc, constants.FieldEntityID),
			EmpStatus: docString(doc, constants.FieldEmpStatus),
		})
	}
	sort.SliceStable(leaders, func(i, j int) bool {
		return search.Fold(leaders[i].EntityID) < search.Fold(leaders[j].EntityID)
	})
	return leaders, nil
}

// FreeShippingBySalesRep reports whether customers of the sales rep ship
// for free, which applies to reps in development.
func (s *EmployeeService) FreeShippingBySalesRep(ctx context.Context, id int64) (bool, error) {
	doc, err := s.store.FindByKey(ctx, constants.CollectionEmployees, id, []string{constants.FieldEmpStatus})
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, errors.NewNotFoundError("Employee", strconv.FormatInt(id, 10))
	}
	return search.ContainsFold(docString(doc, constants.FieldEmpStatus), "desarrollo"), nil
}

func (s *EmployeeService) findOne(ctx context.Context, filter ports.Filter, ref string) (*models.Employee, error) {
	docs, err := s.store.Query(ctx, constants.CollectionEmployees, filter, ports.QueryOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.NewNotFoundError("Employee", ref)
	}
	return models.EmployeeFromDocument(docs[0])
}

// set patches an existing employee; a missing employee is NotFound.
func (s *EmployeeService) set(ctx context.Context, id int64, patch ports.Document) error {
	doc, err := s.store.FindByKey(ctx, constants.CollectionEmployees, id, []string{constants.FieldID})
	if err != nil {
		return err
	}
	if doc == nil {
		return errors.NewNotFoundError("Employee", strconv.FormatInt(id, 10))
	}
	if err := s.store.UpsertByKey(ctx, constants.CollectionEmployees, id, patch); err != nil {
		log.WithError(err).WithField("id", id).Error("Failed to update employee")
		return err
	}
	return nil
}
