// Package validation holds the checks run against candidate input and the
// already fetched current state before any mutation. Nothing here touches
// storage.
package validation

import (
	"fmt"
	"strings"
	"time"

	apperrors "todo-service.com/todo-service/internal/errors"
)

// EntityAlreadyExists fails fast with a Conflict when a natural-key lookup for
// a new entity found a hit.
func EntityAlreadyExists(entity, field, value string, found bool) error {
	if found {
		return apperrors.Conflict("%s with %s: %s already exists", entity, field, value)
	}
	return nil
}

// EntityMustExist fails fast with NotFound when a required entity is absent.
func EntityMustExist(entity, key string, found bool) error {
	if !found {
		return apperrors.NotFound("%s %q not exists", entity, key)
	}
	return nil
}

// Validator accumulates field-level problems so they can be reported together.
type Validator struct {
	messages []string
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) Addf(format string, args ...any) {
	v.messages = append(v.messages, fmt.Sprintf(format, args...))
}

func (v *Validator) FieldNotEmpty(entity, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Addf("%s has empty field '%s'", entity, field)
	}
}

// DeadlineNotInPast rejects a zero timestamp as missing and anything strictly
// before now as past.
func (v *Validator) DeadlineNotInPast(entity, field string, value, now time.Time) {
	if value.IsZero() {
		v.Addf("%s has empty field '%s'", entity, field)
		return
	}
	if value.Before(now) {
		v.Addf("%s cannot be in the past", field)
	}
}

// FieldUnchanged rejects an attempt to change an immutable field.
func (v *Validator) FieldUnchanged(field, existing, incoming string) {
	if existing != incoming {
		v.Addf("%s %q is not equal to %q. Update not allowed.", field, existing, incoming)
	}
}

// NameUniqueAcrossIDs rejects a name already held by a different entity.
// holderID is the id of the current entity carrying the name, or "".
func (v *Validator) NameUniqueAcrossIDs(name, entityID, holderID string) {
	if entityID != "" && holderID != "" && entityID != holderID {
		v.Addf("Name %s is used by category of id: %s", name, holderID)
	}
}

// OneOf rejects a value outside allowed.
func (v *Validator) OneOf(entity, field, value string, allowed []string) {
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	v.Addf("%s has invalid %s '%s', expected one of %s", entity, field, value, strings.Join(allowed, ", "))
}

func (v *Validator) Messages() []string {
	return append([]string(nil), v.messages...)
}

// Err returns a single Validation error listing every problem, or nil.
func (v *Validator) Err() error {
	if len(v.messages) == 0 {
		return nil
	}
	return apperrors.Validation(v.messages)
}
