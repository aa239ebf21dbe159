package edict

import (
	"errors"
	"fmt"
)

// SpecError reports a malformed interface declaration.
//
// Declaration errors include:
//   - missing interface, operation, or argument names
//   - an argument without a declared type
//   - duplicate operation or argument names
//   - a default value that does not match the declared argument type
//
// Compilation is atomic: the first SpecError aborts the whole interface.
type SpecError struct {
	// Interface names the declaring interface, when known.
	Interface string

	// Op names the offending operation, when known.
	Op string

	// Arg names the offending argument, when known.
	Arg string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *SpecError) Error() string {
	switch {
	case e.Op != "" && e.Arg != "":
		return fmt.Sprintf("SPEC_ERROR: %s (op=%s.%s, arg=%s)", e.Message, e.Interface, e.Op, e.Arg)
	case e.Op != "":
		return fmt.Sprintf("SPEC_ERROR: %s (op=%s.%s)", e.Message, e.Interface, e.Op)
	case e.Interface != "":
		return fmt.Sprintf("SPEC_ERROR: %s (interface=%s)", e.Message, e.Interface)
	}
	return fmt.Sprintf("SPEC_ERROR: %s", e.Message)
}

// AsSpecError unwraps err to a *SpecError if one is in the chain.
func AsSpecError(err error) (*SpecError, bool) {
	var se *SpecError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// FieldErrorCode categorizes intent construction failures.
type FieldErrorCode string

const (
	// FieldMissing indicates a required field was not supplied and has no default.
	FieldMissing FieldErrorCode = "MISSING_FIELD"

	// FieldUnknown indicates a supplied key that the intent type does not declare.
	FieldUnknown FieldErrorCode = "UNKNOWN_FIELD"

	// FieldTypeMismatch indicates a supplied value not assignable to the declared type.
	FieldTypeMismatch FieldErrorCode = "TYPE_MISMATCH"
)

// FieldError reports a failed intent construction. It names the intent type,
// the offending field, and whether the cause was a missing field, an unknown
// field, or a type mismatch.
type FieldError struct {
	// Intent is the diagnostic name of the intent type ("Utils.add").
	Intent string

	// Field is the offending field name.
	Field string

	// Code identifies the failure category.
	Code FieldErrorCode

	// Want is the declared type, when relevant.
	Want string

	// Got is the supplied value's type, when relevant.
	Got string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	switch e.Code {
	case FieldMissing:
		return fmt.Sprintf("%s: %s requires field %q (%s)", e.Code, e.Intent, e.Field, e.Want)
	case FieldUnknown:
		return fmt.Sprintf("%s: %s has no field %q", e.Code, e.Intent, e.Field)
	case FieldTypeMismatch:
		return fmt.Sprintf("%s: %s field %q wants %s, got %s", e.Code, e.Intent, e.Field, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: %s field %q", e.Code, e.Intent, e.Field)
}

// AsFieldError unwraps err to a *FieldError if one is in the chain.
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// BindErrorCode categorizes provider binding failures.
type BindErrorCode string

const (
	// ErrBindMissingMethod indicates the provider lacks a method for a public operation.
	ErrBindMissingMethod BindErrorCode = "MISSING_METHOD"

	// ErrBindBadSignature indicates a method shape the dispatcher cannot call.
	ErrBindBadSignature BindErrorCode = "BAD_SIGNATURE"

	// ErrBindUnmatchedArg indicates a declared argument with no matching params field.
	ErrBindUnmatchedArg BindErrorCode = "UNMATCHED_ARG"

	// ErrBindUnmatchedField indicates an exported params field with no declared argument.
	ErrBindUnmatchedField BindErrorCode = "UNMATCHED_FIELD"

	// ErrBindArgType indicates a params field that cannot hold its argument's declared type.
	ErrBindArgType BindErrorCode = "ARG_TYPE"
)

// BindError reports a provider that does not satisfy an interface's binding
// contract. Building a dispatcher fails fast on the first BindError; no
// provider method is invoked while binding.
type BindError struct {
	// Interface names the bound interface.
	Interface string

	// Op names the operation being bound.
	Op string

	// Provider is the provider's Go type, for diagnostics.
	Provider string

	// Code identifies the failure category.
	Code BindErrorCode

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *BindError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (op=%s.%s, provider=%s)", e.Code, e.Message, e.Interface, e.Op, e.Provider)
	}
	return fmt.Sprintf("%s: %s (interface=%s, provider=%s)", e.Code, e.Message, e.Interface, e.Provider)
}

// AsBindError unwraps err to a *BindError if one is in the chain.
func AsBindError(err error) (*BindError, bool) {
	var be *BindError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// DuplicateRegistrationError reports an attempt to route an intent type that
// is already routed. Registration never silently replaces an entry.
type DuplicateRegistrationError struct {
	// IntentType is the colliding dispatch key.
	IntentType *IntentType
}

// Error implements the error interface.
func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("DUPLICATE_REGISTRATION: %s is already routed", e.IntentType.Name())
}

// IsDuplicateRegistration returns true if the error is a duplicate
// registration error. Uses errors.As to handle wrapped errors.
func IsDuplicateRegistration(err error) bool {
	var de *DuplicateRegistrationError
	return errors.As(err, &de)
}

// UnhandledEffectError reports a performed effect whose intent type has no
// registered performer.
type UnhandledEffectError struct {
	// IntentType is the unmatched type. Nil for a zero Effect.
	IntentType *IntentType
}

// Error implements the error interface.
func (e *UnhandledEffectError) Error() string {
	if e.IntentType == nil {
		return "UNHANDLED_EFFECT: effect wraps no intent"
	}
	return fmt.Sprintf("UNHANDLED_EFFECT: no performer registered for %s", e.IntentType.Name())
}

// IsUnhandledEffect returns true if the error is an unhandled effect error.
// Uses errors.As to handle wrapped errors.
func IsUnhandledEffect(err error) bool {
	var ue *UnhandledEffectError
	return errors.As(err, &ue)
}
