/*
Package session serializes access to conversation state.

Transitions within one (user, partner) pair are strictly sequential: a second
mutation is not accepted while a prior one's persistence write is
outstanding. The Manager enforces this with in-process reference-counted
locks and, optionally, a distributed lock for multi-replica deployments.
*/
package session
