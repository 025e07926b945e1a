/*
Package swap implements the cross-chain atomic swap order engine.

An Order binds two legs locked on independent ledgers to a single secret.
The package tracks the order through its settlement lifecycle, gates every
withdrawal and refund by the current settlement window and the caller role,
and accounts partial fills against the order remaining amount.

The engine is a pure state machine. Chain adapters report discrete events
(leg locked, secret observed, time advanced) to the Coordinator and execute
the ChainAction instructions it emits. The engine itself never signs,
broadcasts, polls or waits; every operation is a deterministic function of
the stored order, the event and the caller supplied time.
*/
package swap
