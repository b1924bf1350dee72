// Package gamestate provides the reference save components: player, world
// generation parameters, inventory, skills, buffs and vendor stock.
//
// Every component encodes a deterministic function of its state, so
// incremental saves can reuse cached sections. Counts go through
// Writer.PutCount and Reader.Count, which makes the payloads readable at
// every format version.
package gamestate
