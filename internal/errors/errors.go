package appErrors

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed field on a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a missing campaign or lead.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

func NewCampaignNotFound(id int) error {
	return &NotFoundError{Resource: "campaign", ID: id}
}

func NewLeadNotFound(id int) error {
	return &NotFoundError{Resource: "lead", ID: id}
}

// DomainStateError reports an operation attempted against a campaign or lead
// whose current status forbids it (paused/completed campaign, non-active lead).
type DomainStateError struct {
	Resource string
	ID       int
	Status   string
	Reason   string
}

func (e *DomainStateError) Error() string {
	return fmt.Sprintf("%s %d is %s: %s", e.Resource, e.ID, e.Status, e.Reason)
}

func NewDomainState(resource string, id int, status, reason string) error {
	return &DomainStateError{Resource: resource, ID: id, Status: status, Reason: reason}
}

// GatewayPermanentError means the recipient address can never be reached.
// The lead must be deactivated and never retried.
type GatewayPermanentError struct {
	Code    string
	Message string
}

func (e *GatewayPermanentError) Error() string {
	return fmt.Sprintf("gateway permanent failure (%s): %s", e.Code, e.Message)
}

func NewGatewayPermanent(code, message string) error {
	return &GatewayPermanentError{Code: code, Message: message}
}

// GatewayTransientError means the send failed but a later sweep may succeed.
// No lead state changes on a transient failure.
type GatewayTransientError struct {
	Code    string
	Message string
}

func (e *GatewayTransientError) Error() string {
	return fmt.Sprintf("gateway transient failure (%s): %s", e.Code, e.Message)
}

func NewGatewayTransient(code, message string) error {
	return &GatewayTransientError{Code: code, Message: message}
}

// PersistenceError wraps a failed audit write. It is non-fatal: the dispatch
// already happened and must not be rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsDomainState(err error) bool {
	var ds *DomainStateError
	return errors.As(err, &ds)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsPermanent(err error) bool {
	var pe *GatewayPermanentError
	return errors.As(err, &pe)
}

func IsTransient(err error) bool {
	var te *GatewayTransientError
	return errors.As(err, &te)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
