/*
Package lockstep is a cyclic-traversal synchronization engine.

A network maps every node to exactly two successors, Left and Right. A cyclic
instruction sequence chooses which edge each step follows. lockstep answers two
questions about such a walk:

  - Single goal: how many steps does a token need to get from a start node to a goal node?
  - Multi goal: when are several tokens, started from every node matching a start
    predicate, all on goal nodes at the same step?

The second question is answered without simulating the tokens together. Each token is
walked until its (node, cursor) position repeats, which yields the phase of its first
goal hit and the period of its goal hits inside the cycle. The per-token schedules are
then combined, by least common multiple when every token hits goals exactly at multiples
of its period and by merging residue classes otherwise.

# Step convention

The start position never counts. A token starting on a goal has to move and land on a
goal again, so every answer is at least 1.

# Usage

	eng, err := lockstep.Load(strings.NewReader(input))
	if err != nil {
		log.Fatal(err)
	}

	steps, err := eng.Steps(ctx) // AAA -> ZZZ by default
	if err != nil {
		log.Fatal(err)
	}

	sync, err := eng.Synchronize(ctx) // every **A token until all stand on **Z
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(steps, sync.Steps)

Analyses share the immutable network and instruction sequence, so an Engine is safe for
concurrent use.
*/
package lockstep
