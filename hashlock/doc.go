/*
Package hashlock implements the hash commitment scheme that binds both legs
of an atomic swap to a single secret.

Each leg commits to the secret using the hash primitive native to its ledger,
so two different algorithms can be active for the same secret at the same
time. The secret length is fixed to 32 bytes and is rejected before hashing.
Digest comparison always hashes the full input and compares in constant time.
*/
package hashlock
