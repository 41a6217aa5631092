package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/segyhp/lending-core/internal/service"
	customError "github.com/segyhp/lending-core/pkg/errors"
	"github.com/segyhp/lending-core/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Headers set by the authentication gateway in front of the service.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const maxBodyBytes = 1 << 20

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return invalidRequest(fmt.Sprintf("Invalid request body: %v", err))
	}

	if err := v.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return invalidRequest(describe(fieldErrs))
		}
		return invalidRequest(err.Error())
	}
	return nil
}

func describe(fieldErrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return "Invalid request: " + strings.Join(parts, "; ")
}

// actorFromRequest reads the caller from the gateway headers. A missing role
// yields an actor no operation accepts.
func actorFromRequest(r *http.Request) (service.Actor, error) {
	actor := service.Actor{
		Role: service.Role(strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderUserRole)))),
	}

	if raw := r.Header.Get(HeaderUserID); raw != "" {
		id, err := utils.ParseUUID(raw)
		if err != nil {
			return service.Actor{}, invalidRequest(fmt.Sprintf("%s header: %v", HeaderUserID, err))
		}
		actor.UserID = &id
	}
	return actor, nil
}

// authorizedActor reads the caller and applies check to it before anything
// else in the request is parsed.
func authorizedActor(r *http.Request, check func(service.Actor) error) (service.Actor, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return service.Actor{}, err
	}
	if err := check(actor); err != nil {
		return service.Actor{}, err
	}
	return actor, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := utils.ParseUUID(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, invalidRequest(fmt.Sprintf("%s: %v", name, err))
	}
	return id, nil
}

func parseDecimal(field, code, raw string) (decimal.Decimal, error) {
	d, err := utils.DecimalFromString(raw)
	if err != nil {
		return decimal.Zero, customError.NewValidationError(code, fmt.Sprintf("%s: %v", field, err))
	}
	return d, nil
}
