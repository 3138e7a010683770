// Package graph is the immutable description of a flow: node specs, typed
// sockets, and directed connections. It resolves concrete socket slots for
// array sockets (`name_0`, `name_1`, ...) and answers connectivity queries
// for the scheduler. The definition is read-only once built; runs never
// mutate it.
package graph
