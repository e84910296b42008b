// Package calendar implements the event retrieval engine on top of the
// CalDAV transport.
//
// Retrieval tries three strategies in order: a server-side time-range
// REPORT, a shallow listing of the collection, and finally a recursive
// walk of the collection tree. The first strategy that produces events
// wins. REPORT results are trusted as already filtered; listing results
// are filtered client-side with a half-open overlap test, so an event
// ending exactly when the range starts does not match.
//
// Range bounds are built in UTC so the REPORT time-range attributes
// carry stable Z-suffixed values on any host. Compact CalDAV event
// values are read positionally, with trailing Z markers and numeric
// offsets on range inputs ignored rather than applied.
package calendar
