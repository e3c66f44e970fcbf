package telegram

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Poller interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

const (
	baseDelay = 1 * time.Second
	maxDelay  = 15 * time.Second

	// Long-poll seconds. GetUpdates cannot be cancelled, so this bounds how
	// long shutdown waits for it.
	pollTimeout = 5

	defaultMaxConcurrent = 4
)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return baseDelay
}

func clampDelay(d time.Duration) time.Duration {
	if d < baseDelay {
		return baseDelay
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// Poll long-polls for updates until ctx is cancelled. Updates are handled
// concurrently, at most MaxConcurrent at a time; Poll waits for them before
// returning.
func (r *Router) Poll(ctx context.Context, p Poller) {
	var wg sync.WaitGroup
	defer wg.Wait()
	sem := make(chan struct{}, r.maxConcurrent())

	offset := 0
	for {
		select {
		case <-ctx.Done():
			r.logger().Info("polling stopped")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = pollTimeout

		updates, err := p.GetUpdates(u)
		if err != nil {
			d := clampDelay(retryDelayFromError(err))
			r.logger().Warn("polling error", zap.Error(err), zap.Duration("retry_in", d))
			if !sleep(ctx, d) {
				return
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				r.logger().Info("polling stopped", zap.Int("dropped_update", upd.UpdateID))
				return
			}
			wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer func() {
					<-sem
					wg.Done()
				}()
				r.HandleUpdate(ctx, upd)
			}(upd)
		}

		if len(updates) == 0 && !sleep(ctx, 200*time.Millisecond) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
