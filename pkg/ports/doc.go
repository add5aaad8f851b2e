/*
Package ports defines the interfaces between the Parley core and the outside
world: state persistence, the rank and reward collaborators, and distributed
locking.

Adapters implement these interfaces; the engine only ever depends on the
interfaces. The package also exports a contract test suite so that any store
implementation can verify its conformance.
*/
package ports
