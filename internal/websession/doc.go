// Package websession keeps per-browser state for the review flow.
//
// Review sessions and connected Zotero credentials live in an scs session
// backed by the main SQLite database. The package also carries the gin
// adapters for scs, CSRF protection of the browser routes, and security
// headers.
package websession
