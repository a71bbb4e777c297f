package bot

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	chatQueueSize = 16
	chatIdle      = time.Minute
)

// chatQueue hands messages to handle one at a time per chat, in arrival
// order. Different chats are served concurrently; a chat's worker exits
// after chatIdle without messages.
type chatQueue struct {
	handle func(context.Context, *tgbotapi.Message)
	idle   time.Duration

	mu     sync.Mutex
	queues map[int64]chan *tgbotapi.Message
	wg     sync.WaitGroup
}

func newChatQueue(handle func(context.Context, *tgbotapi.Message)) *chatQueue {
	return &chatQueue{
		handle: handle,
		idle:   chatIdle,
		queues: make(map[int64]chan *tgbotapi.Message),
	}
}

// Push enqueues message for its chat. It blocks while that chat's queue is
// full, until ctx is cancelled.
func (q *chatQueue) Push(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	q.mu.Lock()
	defer q.mu.Unlock()

	ch, ok := q.queues[chatID]
	if !ok {
		ch = make(chan *tgbotapi.Message, chatQueueSize)
		q.queues[chatID] = ch
		q.wg.Add(1)
		go q.run(ctx, chatID, ch)
	}

	select {
	case ch <- message:
	case <-ctx.Done():
	}
}

func (q *chatQueue) run(ctx context.Context, chatID int64, ch chan *tgbotapi.Message) {
	defer q.wg.Done()

	timer := time.NewTimer(q.idle)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			q.remove(chatID)
			return
		case message := <-ch:
			q.handle(ctx, message)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(q.idle)
		case <-timer.C:
			q.mu.Lock()
			if len(ch) > 0 {
				q.mu.Unlock()
				timer.Reset(q.idle)
				continue
			}
			delete(q.queues, chatID)
			q.mu.Unlock()
			return
		}
	}
}

func (q *chatQueue) remove(chatID int64) {
	q.mu.Lock()
	delete(q.queues, chatID)
	q.mu.Unlock()
}

// Wait blocks until every chat worker has exited.
func (q *chatQueue) Wait() {
	q.wg.Wait()
}
