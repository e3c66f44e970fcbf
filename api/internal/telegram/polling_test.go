package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

type scriptedPoller struct {
	mu      sync.Mutex
	calls   []int
	batches [][]tgbotapi.Update
	cancel  context.CancelFunc
}

func (p *scriptedPoller) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, cfg.Offset)
	if len(p.batches) == 0 {
		p.cancel()
		return nil, nil
	}
	b := p.batches[0]
	p.batches = p.batches[1:]
	return b, nil
}

func TestPollAdvancesOffsetAndHandlesUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &scriptedPoller{cancel: cancel, batches: [][]tgbotapi.Update{
		{
			{UpdateID: 10, Message: commandUpdate("health").Message},
			{UpdateID: 11, Message: commandUpdate("health").Message},
		},
		{
			{UpdateID: 12, Message: commandUpdate("health").Message},
		},
	}}
	bot := &fakeBot{}
	r := &Router{Bot: bot, Analyzer: &fakeAnalyzer{}}

	done := make(chan struct{})
	go func() {
		r.Poll(ctx, p)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Poll did not stop after cancel")
	}

	assert.Equal(t, []int{0, 12, 13}, p.calls)
	assert.Len(t, bot.texts(), 3)
}

// slowBot records how many Send calls overlap.
type slowBot struct {
	fakeBot
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (b *slowBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	b.active++
	if b.active > b.maxSeen {
		b.maxSeen = b.active
	}
	b.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	b.mu.Lock()
	b.active--
	b.mu.Unlock()
	return b.fakeBot.Send(c)
}

func TestPollLimitsConcurrentUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batch := make([]tgbotapi.Update, 0, 8)
	for i := 0; i < 8; i++ {
		batch = append(batch, tgbotapi.Update{UpdateID: i, Message: commandUpdate("health").Message})
	}
	p := &scriptedPoller{cancel: cancel, batches: [][]tgbotapi.Update{batch}}
	bot := &slowBot{}
	r := &Router{Bot: bot, Analyzer: &fakeAnalyzer{}, MaxConcurrent: 2}

	done := make(chan struct{})
	go func() {
		r.Poll(ctx, p)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Poll did not stop after cancel")
	}

	assert.Len(t, bot.texts(), 8)
	assert.LessOrEqual(t, bot.maxSeen, 2)
}

func TestPollUsesShortTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got tgbotapi.UpdateConfig
	p := pollerFunc(func(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
		got = cfg
		cancel()
		return nil, nil
	})
	(&Router{Bot: &fakeBot{}, Analyzer: &fakeAnalyzer{}}).Poll(ctx, p)

	assert.Equal(t, pollTimeout, got.Timeout)
	assert.LessOrEqual(t, got.Timeout, 10)
}

type pollerFunc func(tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)

func (f pollerFunc) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	return f(cfg)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelayFromError(t *testing.T) {
	assert.Zero(t, retryDelayFromError(nil))
	assert.Equal(t, 7*time.Second, retryDelayFromError(errors.New("Too Many Requests: retry after 7")))
	assert.Equal(t, 3*time.Second, retryDelayFromError(errors.New("too many requests")))
	assert.Equal(t, 2*time.Second, retryDelayFromError(timeoutErr{}))
	assert.Equal(t, time.Second, retryDelayFromError(errors.New("bad gateway")))
}

func TestClampDelay(t *testing.T) {
	assert.Equal(t, baseDelay, clampDelay(0))
	assert.Equal(t, maxDelay, clampDelay(time.Minute))
	assert.Equal(t, 5*time.Second, clampDelay(5*time.Second))
}
