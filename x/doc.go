/*
Package x holds some standard extensions and utilities that are
common to the various extension packages below it.

All items in this package, like Authenticator, should only be
interfaces and helper functions that are used by multiple extensions.
*/
package x
