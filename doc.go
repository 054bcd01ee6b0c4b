/*
Package custody defines all common interfaces used to tie together the
escrow custody engine, as well as implementations of some of the simpler
components (when interfaces would be too much overhead).

We pass context through context.Context between the dispatcher,
middleware, and handlers. To do so, custody defines some common keys to
store info, such as the logger. Each extension, such as auth, may add
its own keys to enrich the context with specific data.
*/
package custody
