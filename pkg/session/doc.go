/*
Package session coordinates access to cached solve reports.

It serializes concurrent solves of the same input within one process through
reference counted local locks and, when a ports.Locker is configured, across
replicas sharing a ports.ResultStore.
*/
package session
