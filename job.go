package threadpool

// job is a (function, argument) pair queued for execution. It is owned by
// the queue while waiting and by the worker that pulls it while running;
// neither owns arg, which remains the caller's responsibility.
type job struct {
	fn  func(arg any, w *Worker)
	arg any
}
