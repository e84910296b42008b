package caldav

import "time"

// Config holds the connection settings for a CalDAV server.
type Config struct {
	// BaseURL is the server root, e.g. "https://dav.example.com".
	// Collection paths passed to the client are resolved against it.
	BaseURL string

	// Username and Password are used for both basic and digest
	// authentication; the server's challenge decides which applies.
	Username string
	Password string

	// Timeout bounds each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout is applied when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// CollectionEntry is a single resource found by a PROPFIND listing.
type CollectionEntry struct {
	// Path is the server-relative href of the resource.
	Path string

	// DisplayName is the collection's displayname property, if any.
	DisplayName string

	// IsDir reports whether the resource is a WebDAV collection.
	IsDir bool

	// IsCalendar reports whether the resource carries the CalDAV
	// calendar resource type.
	IsCalendar bool
}
