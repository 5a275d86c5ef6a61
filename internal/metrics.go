// Per-task timing metrics: running totals plus a Welford online-variance
// accumulator for both execution and wait time samples.
//
// The original C runtime accumulates a sum-of-squares (`exec_sq_sum`) and
// derives variance from it at print time, which overflows a 64-bit counter
// under sustained load (noted as an open risk of that approach). Welford's
// algorithm computes the same variance incrementally without ever squaring
// a running sum, so it is adopted here instead of a direct translation.

package gthreads_internal

import "time"

// welford accumulates mean and variance for a stream of samples in
// microseconds without overflow-prone sum-of-squares bookkeeping.
type welford struct {
	samples int64
	mean    float64
	m2      float64
	total   int64
	min     int64
	max     int64
}

func (w *welford) add(us int64) {
	w.samples++
	if w.samples == 1 {
		w.min, w.max = us, us
	} else {
		if us < w.min {
			w.min = us
		}
		if us > w.max {
			w.max = us
		}
	}
	w.total += us
	delta := float64(us) - w.mean
	w.mean += delta / float64(w.samples)
	delta2 := float64(us) - w.mean
	w.m2 += delta * delta2
}

// variance returns the population variance of the samples seen so far, or 0
// if fewer than two samples have been recorded.
func (w *welford) variance() float64 {
	if w.samples < 2 {
		return 0
	}
	return w.m2 / float64(w.samples)
}

// TaskMetrics holds the timestamps and running statistics of spec.md §3.
type TaskMetrics struct {
	createdAt      time.Time
	lastRunStart   time.Time
	lastReadyStart time.Time

	exec welford
	wait welford
}

func newTaskMetrics(now time.Time) TaskMetrics {
	return TaskMetrics{createdAt: now, lastReadyStart: now}
}

// recordExec folds a completed execution slice (duration spent Running)
// into the exec accumulator.
func (m *TaskMetrics) recordExec(since, now time.Time) {
	m.exec.add(now.Sub(since).Microseconds())
}

// recordWait folds a completed wait slice (duration spent Ready) into the
// wait accumulator.
func (m *TaskMetrics) recordWait(since, now time.Time) {
	m.wait.add(now.Sub(since).Microseconds())
}

// MetricsSnapshot is an immutable copy of a task's metrics, safe to read without
// holding the runtime's scheduling lock.
type MetricsSnapshot struct {
	CreatedAt time.Time

	ExecTotalUs  int64
	ExecMinUs    int64
	ExecMaxUs    int64
	ExecSamples  int64
	ExecVariance float64

	WaitTotalUs  int64
	WaitMinUs    int64
	WaitMaxUs    int64
	WaitSamples  int64
	WaitVariance float64
}

func (m *TaskMetrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CreatedAt: m.createdAt,

		ExecTotalUs:  m.exec.total,
		ExecMinUs:    m.exec.min,
		ExecMaxUs:    m.exec.max,
		ExecSamples:  m.exec.samples,
		ExecVariance: m.exec.variance(),

		WaitTotalUs:  m.wait.total,
		WaitMinUs:    m.wait.min,
		WaitMaxUs:    m.wait.max,
		WaitSamples:  m.wait.samples,
		WaitVariance: m.wait.variance(),
	}
}

// Snapshot returns a copy of this task's metrics. Safe to call from any
// goroutine; briefly takes the task's own field lock.
func (t *Task) Snapshot() MetricsSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics.snapshot()
}
