// Package game runs training sessions against a hub.
//
// A Trainer repeats a simple round: start a new round, light the target
// touchpad, wait for a press, turn the lights off, then reward a press on
// the target with the positive sound and a treat or answer a miss with the
// negative sound.
package game
