// Package memory sizes Go's soft memory limit for containers and reports
// memory pressure.
//
// GOMEMLIMIT is not derived from cgroup limits automatically. [Configure]
// sets it to a share of the container limit (MEMORY_LIMIT, typically from the
// Kubernetes Downward API), leaving the remainder for FFmpeg processes that
// run beside the server. An explicit GOMEMLIMIT always takes precedence.
//
// [Monitor] samples heap usage against that limit. Crossing the critical
// mark flips [Monitor.UnderPressure], which the readiness check reports as
// 503 until usage drops below the high mark again.
//
// Example Kubernetes wiring:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//	  - name: MEMORY_RATIO
//	    value: "0.5"
package memory
