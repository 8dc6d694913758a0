// Package preflight runs startup readiness checks: directory permissions,
// external binary availability, and remote engine reachability.
package preflight
