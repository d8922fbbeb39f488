package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jwkim-lab/revisit/internal/store"
	"github.com/jwkim-lab/revisit/pkg/config"
	"github.com/jwkim-lab/revisit/pkg/db"
	"github.com/jwkim-lab/revisit/pkg/logx"
	"github.com/jwkim-lab/revisit/pkg/rmq"
	"github.com/jwkim-lab/revisit/services/reward-worker/worker"
)

func main() {
	logx.Init()
	defer logx.Sync()

	config.MustLoadWorker()
	cfg := config.Worker

	sqlDB, err := db.Open(cfg.DBDSN)
	if err != nil {
		log.Fatal("db open:", err)
	}
	defer sqlDB.Close()

	cons, err := rmq.NewConsumer(cfg.RMQURL, cfg.Queue)
	if err != nil {
		log.Fatal("rmq:", err)
	}
	defer cons.Close()

	w := worker.New(store.New(sqlDB), cons, cfg.RewardAmount)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}
