/*
Package errors implements custom error interfaces for the custody
engine.

The idea is to reuse as many errors from this package as possible and
define custom package errors when an unique error code is needed.
Errors are declared once and used as the root of any error chain
created during runtime. Checking of an error type is done by calling
Is on a declared error instance.
*/
package errors
