// Package guard simulates a guard patrolling a board.
//
// The guard walks straight until the cell ahead holds an obstacle, then turns
// 90 degrees clockwise. It leaves the patrol once it walks off the board.
//
// Three entry points are provided:
//   - Simulator: one ray-cast step at a time
//   - Patrol: the set of distinct cells visited before the guard leaves
//   - DetectLoops: the cells where one extra obstacle traps the guard in a loop
//
// The simulator keeps the agent as explicit state next to a terrain-only copy
// of the board. Callers' boards are never mutated, so trials can run
// concurrently as long as each trial owns its board.
package guard
