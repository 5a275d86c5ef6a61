// PrintStats: the per-task summary table and detail dump of spec.md §6.
// Init wires this to SIGINT (scheduler.go's signalLoop), mirroring the
// original's `signal(SIGINT, gt_print_stats)`; it is also exported
// directly for callers that want the same dump on demand.

package gthreads_internal

import (
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"
)

var statsLog = NewCompLogger("stats")

// PrintStats writes a summary table (one row per task) followed by a
// per-task detail block, matching gt_print_stats's two-section report
// shape. The summary table uses text/tabwriter for column alignment — the
// one ambient formatting concern in this module built on the standard
// library rather than a third-party console-table package, since none of
// the example repos pull one in for this kind of diagnostic dump.
func PrintStats(rt *Runtime) {
	rt.mu.Lock()
	tasks := make([]*Task, len(rt.table.all()))
	copy(tasks, rt.table.all())
	policyName := rt.policy.Name()
	rt.mu.Unlock()

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tLABEL\tSTATE\tPRIO\tORIG\tTICKETS\tSTARV\tEXEC_US\tWAIT_US\n")
	for _, t := range tasks {
		t.mu.Lock()
		id, label, state := t.id, t.label, t.state
		prio, orig, tickets, starv := t.priority, t.originalPriority, t.tickets, t.starvationCount
		execTotal, waitTotal := t.metrics.exec.total, t.metrics.wait.total
		t.mu.Unlock()
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			id, label, state, prio, orig, tickets, starv, execTotal, waitTotal)
	}
	w.Flush()

	for _, t := range tasks {
		snap := t.Snapshot()
		t.mu.Lock()
		id, label, state := t.id, t.label, t.state
		prio, orig, tickets, starv, blockedOn := t.priority, t.originalPriority, t.tickets, t.starvationCount, t.blockedOn
		t.mu.Unlock()
		NewTaskLogger("stats", id, label).WithFields(map[string]any{
			"state": state.String(),
			"priority": prio, "original_priority": orig, "tickets": tickets,
			"starvation_count": starv, "blocked_on": blockedOn,
			"exec_total_us": snap.ExecTotalUs, "exec_min_us": snap.ExecMinUs,
			"exec_max_us": snap.ExecMaxUs, "exec_samples": snap.ExecSamples,
			"exec_variance": snap.ExecVariance,
			"wait_total_us": snap.WaitTotalUs, "wait_min_us": snap.WaitMinUs,
			"wait_max_us": snap.WaitMaxUs, "wait_samples": snap.WaitSamples,
			"wait_variance": snap.WaitVariance,
		}).Info("task detail")
	}

	// The full goroutine stack dump is only useful at Debug, and capturing
	// it is not cheap (a multi-megabyte buffer plus a stop-the-world stack
	// walk) — skip it entirely unless Debug is actually enabled, rather
	// than pay that cost on every SIGINT just to hand logrus a payload it
	// will immediately discard.
	if DebugEnabled() {
		buf := make([]byte, StackBytes)
		n := runtime.Stack(buf, true)
		statsLog.WithFields(map[string]any{"policy": policyName, "goroutine_dump_bytes": n}).Debug(string(buf[:n]))
	}
}
