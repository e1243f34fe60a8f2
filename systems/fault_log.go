package systems

import "sync"

// FaultLog stores the most recent entity faults
type FaultLog struct {
	mu        sync.Mutex
	faults    []*EntityFaultError
	maxFaults int
	total     int
}

// NewFaultLog creates a fault log keeping the last max faults
func NewFaultLog(max int) *FaultLog {
	if max <= 0 {
		max = 100
	}
	return &FaultLog{
		faults:    []*EntityFaultError{},
		maxFaults: max,
	}
}

// Add adds a fault to the log
func (fl *FaultLog) Add(fault *EntityFaultError) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	fl.faults = append(fl.faults, fault)
	fl.total++

	// Truncate if we have too many faults
	if len(fl.faults) > fl.maxFaults {
		fl.faults = fl.faults[len(fl.faults)-fl.maxFaults:]
	}
}

// Recent gets the n most recent faults, newest first
func (fl *FaultLog) Recent(n int) []*EntityFaultError {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if n > len(fl.faults) {
		n = len(fl.faults)
	}

	result := make([]*EntityFaultError, n)
	for i := 0; i < n; i++ {
		result[i] = fl.faults[len(fl.faults)-1-i]
	}

	return result
}

// Total returns the number of faults ever added, including truncated ones
func (fl *FaultLog) Total() int {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.total
}

