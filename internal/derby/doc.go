// Package derby implements the cube derby racing engine.
//
// The model is centered around a few concepts:
//
// # Track
//
// A Track is a linear sequence of pads; the last pad is the finish
// line. Every pad holds an ordered Stack of cubes, bottom first, so
// cubes sharing a pad always have a defined vertical order. Rank runs
// from the finish backward, top of each stack first.
//
// # Cubes and Abilities
//
// A Cube pairs a character name with an Ability. The ability hooks into
// three points of a round: rolling the movement budget, deciding the
// actions of each unit step, and reacting after a winnerless round.
// Cataloged character names carry the special behaviors from the
// in-game event; any other name races with the default d3-and-carry
// behavior. Abilities keep their own trigger state, which persists
// across the two legs of a match and resets between batch runs.
//
// # Rounds and Matches
//
// Each round draws a random turn order (subject to overrides left by
// the previous round), collects every roll up front against the
// round-start stacks, then walks each cube's turn one unit step at a
// time. The finish check runs after every step, so a carried group can
// reach the finish together and share the win. A Match plays two legs:
// the second leg's track grows by one pad per occupied finishing pad
// and reseats the field in finishing order.
//
// # Batches
//
// RunBatch races the same roster through many seeded matches and
// tallies every leg winner into per-cube win rates. Runs are
// independent, reproducible from the base seed, and may execute on a
// worker pool.
//
// All randomness flows through dice.Source, so tests drive the engine
// with scripted draws.
package derby
