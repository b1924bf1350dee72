// Package main provides the entry point for roguesave.
//
// roguesave creates, loads, inspects and verifies versioned save files:
//
//	roguesave new --seed 42 0
//	roguesave -o json inspect 0
//	roguesave verify 0 autosave_1.sav
//	roguesave --signer hmac-sha256 --key hex:... simulate --ticks 0 0
//
// Configuration comes from --config, then ROGUESAVE_* variables
// (ROGUESAVE_SAVE__COMPRESS=false), then global flags.
package main
