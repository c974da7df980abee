package upgrade

import "sync"

// Tracker records live jobs and refuses a second job for the same node group
type Tracker struct {
	mu   sync.Mutex
	live map[TargetKey]*Job
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{live: make(map[TargetKey]*Job)}
}

// Claim reserves key for a dispatch. It returns false if the key is already
// reserved or has a live job.
func (t *Tracker) Claim(key TargetKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.live[key]; ok {
		return false
	}
	t.live[key] = nil
	return true
}

// Attach stores the job created for a claimed key
func (t *Tracker) Attach(job *Job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live[job.Target.Key()] = job
}

// Release forgets key so it can be dispatched again
func (t *Tracker) Release(key TargetKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.live, key)
}

// Live returns the number of reserved or live keys
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Jobs returns the live jobs
func (t *Tracker) Jobs() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Job, 0, len(t.live))
	for _, j := range t.live {
		if j != nil {
			out = append(out, j)
		}
	}
	return out
}
