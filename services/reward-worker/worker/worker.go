// Package worker consumes review-submitted events and issues rewards.
// Delivery is at-least-once, so the whole handler is idempotent: the reward
// row keyed by (campaign_id, user_id) is the de-duplication record, and a
// redelivered event lands on ON CONFLICT DO NOTHING.
package worker

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jwkim-lab/revisit/internal/campaign"
	"github.com/jwkim-lab/revisit/pkg/logx"
	"github.com/jwkim-lab/revisit/pkg/metrics"
	"github.com/jwkim-lab/revisit/pkg/rmq"
)

// Ledger is the reward persistence contract.
type Ledger interface {
	RewardExists(ctx context.Context, campaignID, userID int64) (bool, error)
	IssueReward(ctx context.Context, campaignID, userID, amount int64) (bool, error)
}

type Worker struct {
	Ledger Ledger
	Cons   *rmq.Consumer
	Amount int64
}

func New(ledger Ledger, cons *rmq.Consumer, amount int64) *Worker {
	return &Worker{Ledger: ledger, Cons: cons, Amount: amount}
}

func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.Cons.Consume()
	if err != nil {
		return err
	}
	logx.L().Infow("reward_worker_started", "queue", w.Cons.Queue)

	for {
		select {
		case <-ctx.Done():
			logx.L().Infow("reward_worker_stopping")
			return ctx.Err()

		case d, ok := <-msgs:
			if !ok {
				logx.L().Warnw("consumer_channel_closed")
				return nil
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle processes one delivery. Malformed payloads and duplicates are
// acked away; transient ledger errors nack with requeue so the event is
// redelivered.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	start := time.Now()
	metrics.WorkerEventsConsumed.Inc()
	defer func() {
		metrics.WorkerProcessDuration.Observe(time.Since(start).Seconds())
	}()

	var event campaign.ReviewSubmittedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		logx.L().Warnw("event_unmarshal_error", "error", err)
		_ = d.Ack(false)
		return
	}
	fields := []any{
		"campaign_id", event.CampaignID,
		"user_id", event.UserID,
		"review_url", event.ReviewURL,
	}

	ctx1, cancel1 := context.WithTimeout(ctx, 5*time.Second)
	exists, err := w.Ledger.RewardExists(ctx1, event.CampaignID, event.UserID)
	cancel1()
	if err != nil {
		logx.L().Errorw("db_reward_exists_error", append(fields, "error", err)...)
		_ = d.Nack(false, true)
		return
	}
	if exists {
		metrics.WorkerDuplicatesSkipped.Inc()
		logx.L().Infow("reward_duplicate_skipped", fields...)
		_ = d.Ack(false)
		return
	}

	ctx2, cancel2 := context.WithTimeout(ctx, 5*time.Second)
	issued, err := w.Ledger.IssueReward(ctx2, event.CampaignID, event.UserID, w.Amount)
	cancel2()
	if err != nil {
		logx.L().Errorw("db_issue_reward_error", append(fields, "error", err)...)
		_ = d.Nack(false, true)
		return
	}

	if issued {
		metrics.WorkerRewardsIssued.Inc()
		logx.L().Infow("reward_issued", append(fields, "amount", w.Amount)...)
	} else {
		// Lost the race against a concurrent redelivery; the row exists.
		metrics.WorkerDuplicatesSkipped.Inc()
		logx.L().Infow("reward_duplicate_skipped", fields...)
	}
	_ = d.Ack(false)
}
