/*
Package observability provides monitoring for the lockstep engine.

Metrics turns engine lifecycle hooks into Prometheus collectors, and Logging
turns them into structured log records.
*/
package observability
