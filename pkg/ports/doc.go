/*
Package ports defines the driven ports (interfaces) of the lockstep engine.

These interfaces decouple the analysis core from external implementations, allowing
solved reports to be cached in memory, on disk or in Redis.

# Key Interfaces

  - ResultStore: Persists and retrieves solve reports by cache key.
  - Locker: Serializes solving of the same input across replicas.
*/
package ports
