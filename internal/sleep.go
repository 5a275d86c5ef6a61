// Uninterruptible sleep, spec.md §4.6: a wrapper that restarts around the
// remainder whenever interrupted, so the preemption tick can never
// shorten a caller's requested duration.

package gthreads_internal

import (
	"time"

	"golang.org/x/sys/unix"
)

// Sleep blocks the calling goroutine for the full duration d, restarting
// around unix.Nanosleep's returned remainder whenever interrupted (EINTR),
// the direct analog of gt_uninterruptible_nanosleep's nanosleep(2) retry
// loop. It deliberately does not call into the scheduler: spec.md is
// explicit that the preemption tick still fires and may switch other tasks
// in and out while this goroutine sleeps, it just may not shorten this
// goroutine's own sleep.
func Sleep(d time.Duration) error {
	remaining := unix.NsecToTimespec(d.Nanoseconds())
	for {
		var rem unix.Timespec
		err := unix.Nanosleep(&remaining, &rem)
		if err == nil {
			return nil
		}
		if err == unix.EINTR {
			remaining = rem
			continue
		}
		return err
	}
}
