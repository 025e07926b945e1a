/*
Package timelock implements expiry and settlement window arithmetic for
atomic swap orders.

A Policy validates the relationship between the source and destination leg
timelocks: the destination leg must expire first, with a safety margin wide
enough for the resolver to redeem the source leg after the secret becomes
public on the destination leg.

A Schedule is the set of stage boundaries computed once at order creation
from the configured stage durations. Mapping a caller supplied timestamp to
the current window is a pure function; intervals are closed-open, so a
timestamp exactly on a boundary belongs to the later window.
*/
package timelock
