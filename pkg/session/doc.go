/*
Package session serializes dispatch per conversation.

Two replies for the same (tenant, contact) must never read-modify-write the
same execution concurrently. The Manager holds an in-process mutex per key,
garbage collected by reference counting, and can additionally hold a
distributed lock so that replicas behind a load balancer coordinate too.
*/
package session
