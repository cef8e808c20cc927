/*
Package token implements a minimal fungible token registry. Each token is
a contract registered under an address derived from its symbol, with per
holder balances kept in a separate bucket. The Controller exposes the
balance and transfer operations to other extensions.
*/
package token
