package service

import (
	customError "github.com/segyhp/lending-core/pkg/errors"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleAnalyst Role = "ANALYST"
	RoleClient  Role = "CLIENT"
)

// Actor is the authenticated caller, supplied by the authentication layer.
type Actor struct {
	UserID *uuid.UUID
	Role   Role
}

var (
	staffRoles = []Role{RoleAdmin, RoleAnalyst}
	payerRoles = []Role{RoleAdmin, RoleAnalyst, RoleClient}
)

func authorize(actor Actor, allowed ...Role) error {
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return customError.WrapForbiddenRole(string(actor.Role))
}

// RequireStaff fails with a forbidden error unless actor is an admin or an
// analyst. Transports call it before reading a request body.
func RequireStaff(actor Actor) error {
	return authorize(actor, staffRoles...)
}

// RequirePayer fails with a forbidden error unless actor may register payments.
func RequirePayer(actor Actor) error {
	return authorize(actor, payerRoles...)
}
