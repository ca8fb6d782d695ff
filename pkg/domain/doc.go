/*
Package domain contains the core domain models shared by every part of the lockstep engine.

It defines the vocabulary of a two-choice network walk: node identifiers, the Left/Right
directions an instruction can select, the records a network is built from, and the
position pair that fully describes a single token's future. This package is kept pure
and free of I/O so that analyzers and adapters can share it freely.

# Key Entities

  - NodeID: Opaque, comparable label of a network node.
  - Direction: One of Left or Right.
  - Record: A node together with its two successors.
  - Position: The (node, cursor) pair that identifies a walk state.
  - Predicate: Goal or start test applied to a node identifier.
  - LifecycleHooks: Callbacks fired while tokens are analyzed.
*/
package domain
