/*
Package token implements balance bookkeeping for the two supported
stable assets and the checked transfer that every other extension uses
to move funds between accounts.

A transfer is atomic: it either fully applies or fails without any
balance change. It also validates the declared decimal precision of
the amount against the token configuration, so a client that assumes
the wrong precision cannot move an unexpected quantity.
*/
package token
