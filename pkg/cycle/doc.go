/*
Package cycle detects the periodic behaviour of a single token.

A token's future is fully determined by its Position (node, cursor mod L), and a
network of N nodes walked under a sequence of length L has at most N×L positions.
Analyze therefore walks until a position repeats, which happens within N×L+1
steps, and summarises every goal hit observed along the way as a Record.

# Step convention

The start position never counts as a goal hit. Step counts start at 1, so a token
starting on a goal node only arrives once it has moved and landed on a goal again.

# Records

A Record describes the eventual behaviour as the residue class
step ≡ Residue (mod Period) valid after CycleStart, plus the raw hits before that.
When the first hit is the period and every hit falls on a multiple of it, the
record is Simple and tokens can be combined with a plain least common multiple.
*/
package cycle
