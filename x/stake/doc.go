/*
Package stake implements a minimal delegation registry. Validators declare
the amount of the staking token bonded with them by each delegator, one
record per pair. Other extensions can consume the registry through the
Querier to learn the total bonded amount of an address.
*/
package stake
