/*
Package escrow implements a two-party custody engine for stable
assets.

An escrow binds a sender and a receiver. Funds are paid in through
deposits, each tracked by its own record carrying an amount, an asset
kind, a signature policy and a lifecycle state. Deposited funds sit in
a per-asset vault account owned by the escrow itself, so no principal
can move them directly. Every deposit resolves exactly once: a release
pays the recorded amount to one of the two parties once the policy is
satisfied, a cancel returns it to the original depositor.

The escrow keeps per-asset deposited totals that always equal the sum
of the amounts of its pending deposit records. All total arithmetic is
checked and an underflow aborts the operation, since it would mean the
books are already wrong.
*/
package escrow
