package tasks

import "sync"

// Publisher fans progress updates out to a single consumer without ever
// blocking the producer. Updates are buffered in an unbounded in-memory
// queue and pumped to the Updates channel in publish order, so a slow
// terminal or TUI can never stall the sync pipeline and no event is
// dropped.
type Publisher struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []ProgressUpdate
	closed bool

	out  chan ProgressUpdate
	done chan struct{}
}

// NewPublisher creates a Publisher and starts its pump goroutine.
func NewPublisher() *Publisher {
	p := &Publisher{
		out:  make(chan ProgressUpdate),
		done: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.pump()
	return p
}

// Publish enqueues an update. It never blocks and never drops; calls
// after Close are ignored.
func (p *Publisher) Publish(update ProgressUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.queue = append(p.queue, update)
	p.cond.Signal()
}

// Updates returns the channel the consumer reads from. The channel is
// closed after Close once every queued update has been delivered.
func (p *Publisher) Updates() <-chan ProgressUpdate {
	return p.out
}

// Close stops the publisher and waits for queued updates to drain to
// the consumer.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.cond.Signal()
	p.mu.Unlock()
	<-p.done
}

func (p *Publisher) pump() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		batch := p.queue
		p.queue = nil
		closed := p.closed
		p.mu.Unlock()

		for _, update := range batch {
			p.out <- update
		}
		if closed {
			close(p.out)
			return
		}
	}
}
