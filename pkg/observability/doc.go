/*
Package observability turns session events into logs and Prometheus metrics.

Both are exposed as domain.Hooks so they can be chained onto any Machine or Manager.
*/
package observability
