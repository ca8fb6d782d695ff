/*
Package dsl provides a fluent builder for constructing lockstep networks in Go.

It is an alternative to writing puzzle text by hand, useful for generated
networks and for tests.

Example usage:

	b := dsl.New().Instructions("LR")

	b.Add("11A").To("11B", "XXX")
	b.Add("11B").To("XXX", "11Z")
	b.Add("11Z").To("11B", "XXX")
	b.Add("XXX").Loop()

	eng, err := b.Engine(lockstep.WithMultiGoal("A", "Z"))
	if err != nil {
		// ...
	}
	answer, err := eng.Synchronize(ctx)

The builder also renders the puzzle text it describes, so the same network
can be sent to the HTTP or MCP adapters.
*/
package dsl
