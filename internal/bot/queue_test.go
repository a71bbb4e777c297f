package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func chatMessage(chatID int64, id int) *tgbotapi.Message {
	return &tgbotapi.Message{MessageID: id, Chat: &tgbotapi.Chat{ID: chatID}}
}

func TestChatQueueKeepsOrderPerChat(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	got := make(map[int64][]int)
	var done sync.WaitGroup
	done.Add(20)

	q := newChatQueue(func(ctx context.Context, m *tgbotapi.Message) {
		// the first message of each chat is slow
		if m.MessageID == 0 {
			time.Sleep(20 * time.Millisecond)
		}
		mu.Lock()
		got[m.Chat.ID] = append(got[m.Chat.ID], m.MessageID)
		mu.Unlock()
		done.Done()
	})

	for i := 0; i < 10; i++ {
		q.Push(ctx, chatMessage(1, i))
		q.Push(ctx, chatMessage(2, i))
	}
	done.Wait()

	for _, chatID := range []int64{1, 2} {
		ids := got[chatID]
		if len(ids) != 10 {
			t.Fatalf("chat %d handled %d messages, want 10", chatID, len(ids))
		}
		for i, id := range ids {
			if id != i {
				t.Errorf("chat %d order = %v", chatID, ids)
				break
			}
		}
	}

	cancel()
	q.Wait()
}

func TestChatQueueIdleWorkerExits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handled := make(chan int, 2)
	q := newChatQueue(func(ctx context.Context, m *tgbotapi.Message) {
		handled <- m.MessageID
	})
	q.idle = 10 * time.Millisecond

	q.Push(ctx, chatMessage(7, 1))
	<-handled
	q.Wait()

	q.mu.Lock()
	n := len(q.queues)
	q.mu.Unlock()
	if n != 0 {
		t.Errorf("%d chat queues left after idle", n)
	}

	q.Push(ctx, chatMessage(7, 2))
	if id := <-handled; id != 2 {
		t.Errorf("handled message %d after restart, want 2", id)
	}
	cancel()
	q.Wait()
}
