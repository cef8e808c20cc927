/*
Package drip implements a periodic token distribution.

A drip pool holds a fixed amount of a single token that is released in equal
portions, once per epoch, over a fixed number of epochs. Every address can
register as a participant. During a distribution cycle each registered
participant that stakes at least the configured minimum collects shares in
every active pool, proportional to the amount staked. Shares are not tokens.
A participant can at any time convert all of its shares into tokens, receiving
a cut of the released funds proportional to the share of all issued shares it
holds.

Pools are independent but all of them follow the same schedule, gated by the
distribution time kept in the package configuration. A cycle can be triggered
by anyone once the distribution time has passed.

Native coins are moved through the cash ledger from a shared drip account.
External fungible tokens are moved through a token controller implemented
outside of this package.
*/
package drip
