// Package worker provides a sharded single-writer queue: per-conversation
// FIFO ordering with round-robin fairness across conversations, executed on
// an elastic pool of workers.
package worker

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

// ErrBusy reports that the submission queue is full. Callers surface this
// as back-pressure; nothing was enqueued.
var ErrBusy = errors.New("worker: dispatch queue full")

// Config sizes the dispatcher and its pool.
type Config struct {
	MinWorkers        int
	MaxWorkers        int
	QueueSize         int
	WorkerIdleTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinWorkers <= 0 {
		c.MinWorkers = 2
	}
	if c.MaxWorkers < c.MinWorkers {
		c.MaxWorkers = c.MinWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	return c
}

type convQueue struct {
	jobs     []Job
	enqueued bool // present in the ready list
	inflight bool // a job for this conversation is running
}

// Dispatcher fans jobs out to the pool while keeping at most one job per
// conversation in flight. The ready list rotates conversations so a busy
// one cannot starve the rest.
type Dispatcher struct {
	pool     *jobChannelPool
	jobQueue chan Job
	doneCh   chan string

	mu     sync.Mutex
	queues map[string]*convQueue
	ready  *list.List
}

func NewDispatcher(cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		jobQueue: make(chan Job, cfg.QueueSize),
		doneCh:   make(chan string, cfg.MaxWorkers),
		queues:   make(map[string]*convQueue),
		ready:    list.New(),
	}
	d.pool = newJobChannelPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.WorkerIdleTimeout, d)

	for i := 0; i < cfg.MinWorkers; i++ {
		d.pool.spawnWorker()
	}

	go d.run()
	return d
}

// Submit enqueues a job without blocking. ErrBusy means the caller should
// back off; the job was not accepted.
func (d *Dispatcher) Submit(job Job) error {
	if job.Run == nil || job.ConversationID == "" {
		return errors.New("worker: job needs a conversation id and a run func")
	}
	select {
	case d.jobQueue <- job:
		return nil
	default:
		return ErrBusy
	}
}

func (d *Dispatcher) run() {
	for {
		if !d.dispatchOne() {
			// Nothing ready; block until new work or a completion.
			select {
			case job := <-d.jobQueue:
				d.enqueueJob(job)
			case id := <-d.doneCh:
				d.finish(id)
			}
			continue
		}
		select {
		case job := <-d.jobQueue:
			d.enqueueJob(job)
		case id := <-d.doneCh:
			d.finish(id)
		default:
		}
	}
}

func (d *Dispatcher) enqueueJob(job Job) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.queues[job.ConversationID]
	if q == nil {
		q = &convQueue{}
		d.queues[job.ConversationID] = q
	}
	q.jobs = append(q.jobs, job)
	if !q.enqueued && !q.inflight {
		q.enqueued = true
		d.ready.PushBack(job.ConversationID)
	}
}

// dispatchOne hands the front conversation's next job to a pool worker.
// The conversation leaves the ready list until the job completes, which is
// what guarantees per-conversation mutual exclusion.
func (d *Dispatcher) dispatchOne() bool {
	d.mu.Lock()
	elem := d.ready.Front()
	if elem == nil {
		d.mu.Unlock()
		return false
	}
	id := elem.Value.(string)
	q := d.queues[id]
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	q.inflight = true
	q.enqueued = false
	d.ready.Remove(elem)
	d.mu.Unlock()

	workerChan := d.pool.acquire()
	debugLog("[dispatcher] assign job for conversation %s", id)
	workerChan <- job
	return true
}

// finish re-readies a conversation after its in-flight job completed.
func (d *Dispatcher) finish(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.queues[id]
	if q == nil {
		return
	}
	q.inflight = false
	if len(q.jobs) == 0 {
		delete(d.queues, id)
		return
	}
	if !q.enqueued {
		q.enqueued = true
		d.ready.PushBack(id)
	}
}

// signalDone is called by workers; doneCh is sized to MaxWorkers so this
// never blocks a worker.
func (d *Dispatcher) signalDone(conversationID string) {
	d.doneCh <- conversationID
}
