package software

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// bandPool runs row bands of a pass on a fixed set of goroutines.
//
// Each worker owns a queue and steals from the others when its own runs
// dry, so uneven bands (streaks near the border sample fewer texels) still
// finish together.
type bandPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// newBandPool starts workers goroutines. If workers is 0 or negative,
// GOMAXPROCS is used.
func newBandPool(workers int) *bandPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &bandPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *bandPool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
		default:
			if fn := p.steal(id); fn != nil {
				fn()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case fn := <-own:
				fn()
			}
		}
	}
}

func drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

func (p *bandPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case fn := <-p.queues[i]:
			return fn
		default:
		}
	}
	return nil
}

// rows splits [y0, y1) into bands and calls fn for each one, returning when
// all bands are done. A closed pool runs the bands on the caller.
func (p *bandPool) rows(y0, y1 int, fn func(y0, y1 int)) {
	n := y1 - y0
	if n <= 0 {
		return
	}
	if !p.running.Load() || p.workers == 1 || n < 2*p.workers {
		fn(y0, y1)
		return
	}

	bands := min(p.workers*4, n)
	size := (n + bands - 1) / bands

	var wg sync.WaitGroup
	for i, start := 0, y0; start < y1; i, start = i+1, start+size {
		end := min(start+size, y1)
		wg.Add(1)
		work := func() {
			defer wg.Done()
			fn(start, end)
		}
		select {
		case p.queues[i%p.workers] <- work:
		case <-p.done:
			work()
		}
	}
	wg.Wait()
}

// close stops the workers after their queues drain. It is safe to call
// more than once but must not overlap a call to rows.
func (p *bandPool) close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
