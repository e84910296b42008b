// Package caldav implements a thin CalDAV/WebDAV transport client.
//
// The client speaks the small subset of WebDAV that calendar servers need:
// PROPFIND for collection listing, REPORT for server-side time-range
// queries, GET for fetching calendar objects, and PUT/DELETE/MKCOL for
// the write path. Authentication supports both basic and digest
// challenge–response schemes against the same credentials.
//
// Servers in the wild return wildly inconsistent XML, so the read path is
// deliberately tolerant: a failed REPORT or an unparseable multistatus
// yields an empty result rather than an error, and callers fall back to
// other retrieval strategies.
package caldav
