package handler

import (
	"sync"
)

// chatQueue runs jobs of one chat strictly in the order they were enqueued.
// Each chat with pending work has one worker goroutine; it exits when its
// queue drains. Different chats run in parallel.
type chatQueue struct {
	mu      sync.Mutex
	pending map[int64][]func()
	closed  bool
	wg      sync.WaitGroup
}

func newChatQueue() *chatQueue {
	return &chatQueue{pending: make(map[int64][]func())}
}

// Enqueue appends job to the chat's queue. It reports false once the queue
// is closed.
func (q *chatQueue) Enqueue(chatID int64, job func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	jobs, running := q.pending[chatID]
	q.pending[chatID] = append(jobs, job)
	if !running {
		q.wg.Add(1)
		go q.work(chatID)
	}
	return true
}

func (q *chatQueue) work(chatID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		jobs := q.pending[chatID]
		if len(jobs) == 0 {
			delete(q.pending, chatID)
			q.mu.Unlock()
			return
		}
		job := jobs[0]
		jobs[0] = nil
		q.pending[chatID] = jobs[1:]
		q.mu.Unlock()

		job()
	}
}

// Wait blocks until every enqueued job has run.
func (q *chatQueue) Wait() {
	q.wg.Wait()
}

// Close refuses new jobs and waits for the queued ones.
func (q *chatQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}
