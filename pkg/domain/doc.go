/*
Package domain contains the core data types of the Parley engine: dialogue
nodes and options, conversation state, delivered messages, and the rank
ordering used by gates.

The package is intentionally dependency-free. Everything here is plain data;
behavior lives in the runtime and the adapters.
*/
package domain
