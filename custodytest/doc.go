/*
Package custodytest provides mocks and helpers for testing handlers
and extensions without wiring a full application.
*/
package custodytest
