// Package clock supplies wall-clock readings to the scheduler.
//
// Code depends on Clocker rather than time.Now so tests can pin the instant a
// code is computed for. The package also refuses readings from before a
// configured floor: a device booted without network time reports instants
// near the epoch, and codes derived from them look valid but never match.
package clock
