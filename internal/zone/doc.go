// Package zone models a group of output lines that are switched together in
// response to a shadow's desired state.
//
// Lines are switched one at a time, in configured order, with a pause after
// each one so that inrush currents do not coincide. The zone remembers the
// last state it applied and skips hardware I/O when asked to apply the same
// state again.
package zone
