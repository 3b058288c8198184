package store

import "errors"

// ErrNotFound indicates a referenced template, queue, session, status, or
// item does not exist. Callers distinguish it from internal failures with
// errors.Is.
var ErrNotFound = errors.New("not found")

// ErrStatusInUse indicates a session status still referenced by items was
// asked to be deleted. The status and its items remain unchanged.
var ErrStatusInUse = errors.New("status in use")

// ErrTemplateInUse indicates a template still referenced by queues or
// sessions was asked to be deleted. The template remains unchanged.
var ErrTemplateInUse = errors.New("template in use")

// ErrStatusMismatch indicates a status that does not belong to the item's
// session was supplied for an item create or move.
var ErrStatusMismatch = errors.New("status does not belong to session")

// ErrInvalidTransition indicates a session state change the lifecycle state
// machine does not permit.
var ErrInvalidTransition = errors.New("invalid session state transition")

// ErrNoActiveSession indicates an operation that requires an active session
// found none for the queue. This is a normal business outcome, not a failure.
var ErrNoActiveSession = errors.New("queue has no active session")
