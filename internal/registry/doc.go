// Package registry is the static registration table for unit types. Each
// module registers its unit types at startup with a factory and the declared
// socket specs; the table replaces any runtime reflection over unit
// implementations. After a flow definition is loaded, the registry validates
// every node and connection against the declared specs so configuration
// errors surface before any run starts.
package registry
