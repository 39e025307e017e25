package http

import (
	"context"

	"github.com/sesbridge/sesbridge/internal/adapter/ws"
	"github.com/sesbridge/sesbridge/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth          *service.AuthService
	Authz         *service.AuthzService
	Companies     *service.CompanyService
	Users         *service.UserService
	Talents       *service.TalentService
	Opportunities *service.OpportunityService
	Requests      *service.RequestService
	Hub           *ws.Hub
	UploadsDir    string

	// Ready reports backend readiness (typically a database ping).
	// Nil means always ready.
	Ready func(ctx context.Context) error
}
