// Package session binds background resources to the currently active device.
//
// A Session owns at most one device identity. Connecting builds the
// permanent resources from the configured factories; feature code adds and
// releases named temporary resources while the device stays connected.
//
// # Exclusive access
//
// Operations that need the device to themselves (bus address changes, flash
// writes) bracket their work with Pause and Resume:
//
//	barrier := s.Pause()
//	if err := barrier.Wait(ctx); err != nil {
//	    return err
//	}
//	defer s.Resume()
//
// Pause stops every resource from starting new work and the returned
// Barrier completes once the work already in flight has drained.
//
// # Re-keying
//
// ReKey moves every resource to a new device identity without recreating
// it. A running session is paused for the duration of the re-key and
// resumed afterwards; a paused session stays paused. Re-keying fails
// without side effects when any resource is not resource.Reassignable.
package session
