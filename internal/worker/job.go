package worker

// Job is one unit of conversation work. Jobs for the same conversation id
// run strictly one at a time in submission order; jobs for different
// conversations run in parallel on the pool.
type Job struct {
	ConversationID string
	Run            func()

	stop bool // pool-internal retirement signal
}
