package services

import (
	"fmt"
	"time"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/erp"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/auth"
)

// Dependencies are the infrastructure adapters the services run on.
// Notifier, SalesReps and Locale may be nil.
type Dependencies struct {
	Store     ports.DocumentStore
	Notifier  ports.Notifier
	ERP       ports.ERPClient
	Locale    ports.LocaleHelper
	SalesReps SalesRepCache
	Retry     ports.RetryQueue
	Fields    *erp.FieldTable
	Issuer    *auth.TokenIssuer

	FrontendURL   string
	SearchTimeout time.Duration
	RetrySchedule string
}

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	Resolver  *IdentityResolver
	Engine    *ReconciliationEngine
	Sync      *SyncService
	Assembler *Assembler
	Benefits  *BenefitEvaluator
	Customers *CustomerService
	Employees *EmployeeService
	Auth      *AuthService
	Retry     *RetryService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(deps Dependencies) (*ServiceManager, error) {
	if deps.Fields == nil {
		deps.Fields = erp.DefaultFieldTable()
	}
	sm := &ServiceManager{}

	// Initialize services in dependency order
	sm.Resolver = NewIdentityResolver(deps.Store)
	sm.Engine = NewReconciliationEngine(deps.Store, deps.Fields, deps.Notifier, deps.SalesReps, deps.FrontendURL)
	sm.Sync = NewSyncService(deps.Fields, sm.Resolver, sm.Engine, deps.Retry)

	benefits, err := NewBenefitEvaluator()
	if err != nil {
		return nil, err
	}
	sm.Benefits = benefits
	sm.Assembler = NewAssembler(deps.Store, deps.Locale, deps.SalesReps)
	sm.Customers = NewCustomerService(deps.Store, sm.Assembler, sm.Benefits, deps.ERP, deps.SearchTimeout)
	sm.Employees = NewEmployeeService(deps.Store, deps.SalesReps)
	sm.Auth = NewAuthService(sm.Employees, sm.Customers, deps.Issuer, deps.Notifier, deps.FrontendURL)

	// The retry worker needs both a queue and somewhere to send refreshes.
	if deps.Retry != nil && deps.ERP != nil && deps.RetrySchedule != "" {
		sm.Retry, err = NewRetryService(deps.Retry, deps.ERP, deps.RetrySchedule)
		if err != nil {
			return nil, fmt.Errorf("failed to create retry service: %w", err)
		}
	}

	return sm, nil
}

// StartRetryWorker starts the background retry loop, if configured.
func (sm *ServiceManager) StartRetryWorker() {
	if sm.Retry != nil {
		go sm.Retry.Start()
	}
}

// StopRetryWorker stops the background retry loop.
func (sm *ServiceManager) StopRetryWorker() {
	if sm.Retry != nil {
		sm.Retry.Stop()
	}
}
