package hmmlib

import (
	"sync"
)

// forEachState calls fn(i) for every state, using at most cfg.Workers
// goroutines.  Each call must only write to state i's slots.
func (hmm *ScaleHMM) forEachState(fn func(i int)) {

	if hmm.cfg.Workers == 1 || hmm.NState == 1 {
		for i := 0; i < hmm.NState; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, hmm.cfg.Workers)

	for i := 0; i < hmm.NState; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}

	wg.Wait()
}
