// Package lifecycle coordinates domain mutations across the store and the
// SSE hub. Every operation persists first and broadcasts only after the
// commit, so subscribers never see an event for state that was rolled back.
// Broadcast delivery is best effort and never unwinds a mutation.
//
// Validation failures wrap ErrValidation; storage failures pass through the
// store's sentinel errors (store.ErrNotFound, store.ErrStatusInUse,
// store.ErrInvalidTransition and friends) so callers can map them onto
// transport error codes.
package lifecycle
