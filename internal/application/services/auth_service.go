package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/auth"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

// LoginResult is returned by every login flavour.
type LoginResult struct {
	Success bool        `json:"success"`
	User    interface{} `json:"user"`
	auth.TokenPair
}

// AuthService issues and revokes sessions for employees and customers.
type AuthService struct {
	employees   *EmployeeService
	customers   *CustomerService
	issuer      *auth.TokenIssuer
	notifier    ports.Notifier
	frontendURL string

	async func(func())
}

// NewAuthService creates a new AuthService. notifier may be nil.
func NewAuthService(employees *EmployeeService, customers *CustomerService, issuer *auth.TokenIssuer, notifier ports.Notifier, frontendURL string) *AuthService {
	return &AuthService{
		employees:   employees,
		customers:   customers,
		issuer:      issuer,
		notifier:    notifier,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		async:       goAsync,
	}
}

// Login signs an employee in with email and password. A second login
// asks the notification service to close the earlier session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	emp, err := s.employees.Validate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session := auth.UserSession{ID: emp.ID, Stage: string(models.StageEmployee), Name: emp.FullName(), Email: emp.Email}
	tokens, err := s.issue(ctx, session)
	if err != nil {
		return nil, err
	}

	if !emp.IsLoggedIn {
		if err := s.employees.SetIsLoggedIn(ctx, emp.ID, true); err != nil {
			return nil, err
		}
	} else {
		s.signalLogout(emp.ID)
	}

	log.WithField("id", emp.ID).Info("Employee logged in")
	return &LoginResult{Success: true, User: emp.Public(), TokenPair: tokens}, nil
}

// LeadLogin signs a customer in by mobile phone, app token or id.
func (s *AuthService) LeadLogin(ctx context.Context, property, value string) (*LoginResult, error) {
	lead, err := s.customers.ValidateByProperty(ctx, property, value)
	if err != nil {
		if errors.IsNotFound(err) || errors.IsValidation(err) {
			return nil, errors.NewUnauthorizedError("unknown user")
		}
		return nil, err
	}

	tokens, err := s.issue(ctx, auth.UserSession{ID: lead.ID, Stage: string(lead.Stage)})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Success: true, User: lead, TokenPair: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.issuer.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid refresh token")
	}
	tokens, err := s.issue(ctx, claims.User)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Logout revokes the refresh token of a session.
func (s *AuthService) Logout(ctx context.Context, session auth.UserSession) error {
	if session.IsEmployee() {
		if err := s.employees.SetRefreshToken(ctx, session.ID, ""); err != nil {
			return err
		}
		return s.employees.SetIsLoggedIn(ctx, session.ID, false)
	}
	return s.customers.SetRefreshToken(ctx, session.ID, "")
}

// ValidateAccess checks an access token.
func (s *AuthService) ValidateAccess(token string) (*auth.UserSession, error) {
	claims, err := s.issuer.ValidateAccess(token)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid token")
	}
	return &claims.User, nil
}

// RecoverPassword emails a reset link. Unknown emails are not revealed
// to the caller.
func (s *AuthService) RecoverPassword(ctx context.Context, email string) error {
	emp, token, err := s.employees.SetRecoverToken(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) || errors.IsValidation(err) {
			log.WithField("email", email).Info("Password recovery requested for unknown email")
			return nil
		}
		return err
	}

	if s.notifier == nil {
		return nil
	}
	to := emp.Email
	vars := map[string]string{
		"account": emp.FullName(),
		"url":     fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token),
	}
	id := emp.ID
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := s.notifier.Send(ctx, to, constants.TemplateRecoverPassword, vars); err != nil {
			log.WithError(err).WithField("id", id).Warn("Failed to send recover-password email")
		}
	})
	return nil
}

// ResetPassword sets a new password using a recovery token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	emp, err := s.employees.GetByRecoverToken(ctx, token)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NewUnauthorizedError("invalid token")
		}
		return err
	}
	return s.employees.SetPassword(ctx, emp.ID, password)
}

// issue signs a token pair and stores the refresh token on the user.
func (s *AuthService) issue(ctx context.Context, session auth.UserSession) (auth.TokenPair, error) {
	tokens, err := s.issuer.Issue(session)
	if err != nil {
		return auth.TokenPair{}, errors.NewInternalError("failed to issue tokens", err)
	}
	if session.IsEmployee() {
		err = s.employees.SetRefreshToken(ctx, session.ID, tokens.RefreshToken)
	} else {
		err = s.customers.SetRefreshToken(ctx, session.ID, tokens.RefreshToken)
	}
	if err != nil {
		return auth.TokenPair{}, err
	}
	return tokens, nil
}

func (s *AuthService) signalLogout(id int64) {
	if s.notifier == nil {
		return
	}
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := s.notifier.SignalLogout(ctx, id); err != nil {
			log.WithError(err).WithField("id", id).Warn("Failed to signal logout")
		}
	})
}
