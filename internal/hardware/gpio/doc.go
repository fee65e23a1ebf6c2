// Package gpio provides output line drivers for zones.
//
// Two drivers are available:
//   - periph: real GPIO through periph.io (Raspberry Pi and other SBCs)
//   - mock: in-memory lines for development and tests
//
// Drivers only deal in electrical levels. Polarity (active-low relay boards)
// is handled by the zone.
package gpio
