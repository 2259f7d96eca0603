package worker

// Worker pulls jobs off its private channel, runs them, and reports
// completion back to the dispatcher before returning itself to the pool.
type Worker struct {
	pool       *jobChannelPool
	dispatcher *Dispatcher
	jobChannel chan Job
}

func NewWorker(pool *jobChannelPool, dispatcher *Dispatcher) *Worker {
	return &Worker{
		pool:       pool,
		dispatcher: dispatcher,
		jobChannel: make(chan Job),
	}
}

func (w *Worker) Start() {
	go func() {
		for job := range w.jobChannel {
			if job.stop {
				w.pool.retire(w.jobChannel)
				return
			}
			job.Run()
			w.dispatcher.signalDone(job.ConversationID)
			w.pool.Release(w.jobChannel)
		}
	}()
}
