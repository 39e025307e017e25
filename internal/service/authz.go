// Package service contains the business logic of sesbridge: the access
// decision pipeline, the role hierarchy guard, and the request workflow
// engine, plus the supporting company, user, talent, and opportunity
// services.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sesbridge/sesbridge/internal/adapter/otel"
	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/user"
)

// Requirement declares what a route demands from the caller. Zero-value
// fields impose nothing; authentication is always required.
type Requirement struct {
	// AllowedRoles, when non-empty, restricts access to these roles.
	AllowedRoles []user.Role
	// TenantScope requires the company named in the URL to be the
	// principal's own company.
	TenantScope bool
	// TenantTypes, when non-empty, restricts access to principals whose
	// company has one of these types.
	TenantTypes []company.Type
}

// TypeResolver resolves a company's type. Implemented by CompanyService
// with an in-process cache in front of the database.
type TypeResolver interface {
	TypeOf(ctx context.Context, companyID string) (company.Type, error)
}

// AuthzService runs the layered access decision pipeline. The layers
// evaluate in a fixed order and the first failing layer wins; later
// layers never run, so a type check can rely on an already-verified
// principal and tenant scope.
type AuthzService struct {
	types   TypeResolver
	metrics *otel.Metrics
}

// NewAuthzService creates the access decision service. metrics may be nil.
func NewAuthzService(types TypeResolver, metrics *otel.Metrics) *AuthzService {
	return &AuthzService{types: types, metrics: metrics}
}

// Authorize evaluates the pipeline for one request:
// authentication, then role, then tenant scope, then tenant type.
func (s *AuthzService) Authorize(ctx context.Context, p *user.Principal, pathCompanyID string, req Requirement) error {
	if p == nil {
		s.deny(ctx, "authentication")
		return domain.ErrUnauthenticated
	}

	if len(req.AllowedRoles) > 0 && !roleAllowed(p.Role, req.AllowedRoles) {
		s.deny(ctx, "role")
		return fmt.Errorf("role %s: %w", p.Role, domain.ErrInsufficientRole)
	}

	if req.TenantScope && pathCompanyID != p.CompanyID {
		s.deny(ctx, "tenant_scope")
		return fmt.Errorf("company %s: %w", pathCompanyID, domain.ErrWrongTenant)
	}

	if len(req.TenantTypes) > 0 {
		typ, err := s.types.TypeOf(ctx, p.CompanyID)
		if err != nil {
			// Fail closed: an unresolvable company never passes a type gate.
			slog.Error("company type resolution failed", "company_id", p.CompanyID, "error", err)
			s.deny(ctx, "tenant_type")
			return fmt.Errorf("resolve company type: %w", domain.ErrWrongTenantType)
		}
		if !typeAllowed(typ, req.TenantTypes) {
			s.deny(ctx, "tenant_type")
			return fmt.Errorf("company type %s: %w", typ, domain.ErrWrongTenantType)
		}
	}

	return nil
}

func (s *AuthzService) deny(ctx context.Context, layer string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AuthzDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("layer", layer)))
}

func roleAllowed(r user.Role, allowed []user.Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

func typeAllowed(t company.Type, allowed []company.Type) bool {
	for _, a := range allowed {
		if t == a {
			return true
		}
	}
	return false
}
