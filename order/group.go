// Package order owns the consolidation rules for restaurant orders: how a new
// confirmed product is assigned to a ticket group, and how raw line items are
// projected into one logical order per group at read time.
package order

import "github.com/mesero-ai/mesero/store"

// ResolveGroup decides the group (ticket) identifier for a new confirmation.
//
// latest is the line item carrying the highest ticket number across all
// customers (not the newest row: appending to an old ticket must not hide a
// higher one, or a new customer would be handed someone else's open ticket),
// open is the customer's most recent still-open (pending or in preparation)
// item; either may be nil.
//
// Decision table:
//   - nothing exists yet            -> 1 (first ticket of the tenant)
//   - customer has an open ticket   -> keep appending to it
//   - otherwise                     -> last ticket number + 1
//
// The caller must run this inside the same transaction as the insert; the
// read-then-write is racy otherwise (two concurrent confirmations could mint
// duplicate or skipped ticket numbers).
func ResolveGroup(latest, open *store.LineItem) int64 {
	if latest == nil {
		return 1
	}
	if open != nil && !open.Status.Terminal() {
		return open.GroupID
	}
	return latest.GroupID + 1
}
