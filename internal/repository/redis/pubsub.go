package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrPubSubDisabled is returned by Listen on a nil *SchedulesPubSub.
var ErrPubSubDisabled = errors.New("pubsub disabled")

// SchedulesPubSub broadcasts "seats changed" notices per schedule. A nil
// *SchedulesPubSub drops every publish.
type SchedulesPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewSchedulesPubSub(rdb *redis.Client) *SchedulesPubSub {
	return &SchedulesPubSub{
		rdb:     rdb,
		channel: ChannelSchedulesChanged(),
	}
}

type scheduleChangedMsg struct {
	Type       string `json:"type"`
	ScheduleID int64  `json:"schedule_id"`
	TsUnix     int64  `json:"ts_unix"`
}

func (p *SchedulesPubSub) PublishScheduleChanged(ctx context.Context, scheduleID int64) error {
	if p == nil || p.rdb == nil {
		return nil
	}

	b, err := json.Marshal(scheduleChangedMsg{
		Type:       "schedule_changed",
		ScheduleID: scheduleID,
		TsUnix:     time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Listen subscribes to schedule-changed notices and returns once Redis has
// confirmed the subscription, so nothing published after Listen returns is
// missed. The channel carries schedule IDs and is closed when ctx is done.
func (p *SchedulesPubSub) Listen(ctx context.Context) (<-chan int64, error) {
	if p == nil || p.rdb == nil {
		return nil, ErrPubSubDisabled
	}

	sub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	msgs := sub.Channel(redis.WithChannelSize(256))
	out := make(chan int64, 16)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var msg scheduleChangedMsg
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil || msg.ScheduleID == 0 {
					continue
				}
				select {
				case out <- msg.ScheduleID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
