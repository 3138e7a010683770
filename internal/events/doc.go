// Package events is the cross-run correlation subsystem. It routes named
// events to registered listeners and pairs await requests with their
// responses across independently scheduled runs.
//
// The Manager is the only engine component shared by concurrent runs; its
// maps are guarded by one mutex, and waiter registration is atomic with
// response delivery so a response can never be lost to the
// arrived-before-subscribed race.
package events
