/*
Package swapcore provides the shared kernel for the cross-chain atomic swap
engine: second precision time primitives used by every other package.

The engine itself lives in the subpackages. hashlock implements the per-leg
hash commitment scheme, timelock implements expiry and settlement window
arithmetic, and x/swap ties both together into the order state machine and
the coordinator facade that chain adapters talk to.

The engine never reads the wall clock and never performs I/O. Time is always
supplied by the caller as a swapcore.UnixTime, which keeps every transition
deterministic and replayable from an event log.
*/
package swapcore
