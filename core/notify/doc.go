// Package notify delivers user-visible load notifications to the host.
//
// The loader reports only what a user must see: permanent failures of
// required modules and unresolvable required references. Everything else is
// logged. A Notifier is the port to whatever surface displays them.
package notify
