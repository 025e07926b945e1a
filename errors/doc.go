/*
Package errors implements custom error interfaces for the swap engine.

The idea is to reuse as many errors declared here as possible and declare new
errors only when a more specific error class is genuinely needed. Domain
packages register their own root errors in reserved code ranges: hashlock
takes 1000-1009, timelock takes 1010-1019 and x/swap takes 1020-1039.

Errors are not meant to be matched by their message. Instead use the Is
method of a registered root error to test if any (possibly wrapped) error
belongs to its class.
*/
package errors
