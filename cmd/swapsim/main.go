// Command swapsim drives one cross-chain swap through its whole lifecycle
// against an in-memory or SQLite backed engine. No chain is involved: the
// adapter reports the simulator fabricates are the ones a real deployment
// would deliver, which makes this a cheap end to end exercise of the
// settlement rules.
package main

import (
	"context"
	"os"
	"time"

	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/hashlock"
	"github.com/lockhaven/swapcore/timelock"
	"github.com/lockhaven/swapcore/x/swap"
	"github.com/lockhaven/swapcore/x/swap/store"
	"github.com/lockhaven/swapcore/x/swap/store/sqlitestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("configuration: %v", err)
	}

	log := newLogger(cfg)
	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
}

func newLogger(cfg config) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	log.SetOutput(os.Stdout)
	return log
}

func run(ctx context.Context, cfg config, log *logrus.Logger) error {
	var orders swap.OrderStore
	if cfg.DBPath != "" {
		s, err := sqlitestore.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()
		orders = s
		log.WithField("path", cfg.DBPath).Info("using sqlite store")
	} else {
		orders = store.NewMemStore()
		log.Info("using in-memory store")
	}

	metrics := swap.NewMetrics(prometheus.NewRegistry())
	engine := swap.NewCoordinator(orders, log, metrics)

	secret, err := hashlock.GenerateSecret()
	if err != nil {
		return err
	}
	srcLock, err := hashlock.New(secret, hashlock.SHA256)
	if err != nil {
		return err
	}
	dstLock, err := hashlock.New(secret, hashlock.Keccak256)
	if err != nil {
		return err
	}
	canonical, err := hashlock.Commit(secret, hashlock.SHA256)
	if err != nil {
		return err
	}

	// The engine reads no wall clock. The simulation owns a virtual clock
	// and hands every call an explicit time.
	now := swapcore.AsUnixTime(time.Now())

	spec := swap.OrderSpec{
		Initiator:    "alice",
		Counterparty: "bob",
		Source: swap.Leg{
			ChainID:  "near-mainnet",
			Asset:    "NEAR",
			Amount:   decimal.NewFromInt(cfg.Amount),
			Sender:   "alice",
			Receiver: "bob",
			Hashlock: srcLock,
			Timelock: now.AddDuration(3000),
		},
		Destination: swap.Leg{
			ChainID:       "eth-mainnet",
			Asset:         "ETH",
			Amount:        decimal.NewFromInt(1),
			Sender:        "bob",
			Receiver:      "alice",
			Hashlock:      dstLock,
			Timelock:      now.AddDuration(1500),
			SafetyDeposit: decimal.NewFromInt(1),
		},
		SecretHash: canonical,
		Config: swap.Configuration{
			MinTimelockDuration: 600,
			MaxTimelockDuration: 7200,
			MinTimelockMargin:   300,
			ProtocolFeeBps:      30,
			Stages: timelock.StageDurations{
				FinalityDelay:   60,
				TakerExclusive:  120,
				PrivateResolver: 300,
				PublicResolver:  600,
				Cancellation:    900,
			},
		},
		CreatedAt: now,
	}
	if cfg.PartialFills > 1 {
		spec.Config.AllowPartialFill = true
		spec.Config.MinFillAmount = decimal.NewFromInt(1)
	}

	order, err := engine.CreateOrder(ctx, spec)
	if err != nil {
		return err
	}

	if _, err := engine.ReportLegLocked(ctx, order.ID, swap.LegSource, "sim-src-tx", now.AddDuration(5)); err != nil {
		return err
	}
	if _, err := engine.ReportLegLocked(ctx, order.ID, swap.LegDestination, "sim-dst-tx", now.AddDuration(10)); err != nil {
		return err
	}

	// Jump past finality so the taker exclusive window is open.
	settleAt := order.Schedule.FinalityTime.AddDuration(5)

	if cfg.PartialFills > 1 {
		return settleInFills(ctx, cfg, log, engine, order, secret, settleAt)
	}

	out, err := engine.AttemptWithdraw(ctx, swap.WithdrawRequest{
		OrderID: order.ID,
		Role:    swap.RoleTaker,
		Caller:  "bob",
		Secret:  secret,
		Now:     settleAt,
	})
	if err != nil {
		return err
	}
	for _, a := range out.Actions {
		log.WithFields(logrus.Fields{
			"action":   a.Kind,
			"chain":    a.ChainID,
			"amount":   a.Amount,
			"receiver": a.Receiver,
		}).Info("chain action emitted")
	}
	log.WithField("status", out.Order.Status).Info("swap settled")
	return nil
}

// settleInFills splits the order total into equal fills claimed and then
// settled one by one by the taker.
func settleInFills(ctx context.Context, cfg config, log *logrus.Logger, engine *swap.Coordinator, order *swap.Order, secret []byte, settleAt swapcore.UnixTime) error {
	total := decimal.NewFromInt(cfg.Amount)
	chunk := total.Div(decimal.NewFromInt(int64(cfg.PartialFills))).Floor()

	var fills []*swap.Fill
	remaining := total
	for i := 0; i < cfg.PartialFills; i++ {
		amount := chunk
		if i == cfg.PartialFills-1 {
			amount = remaining
		}
		f, err := engine.AddFill(ctx, order.ID, "bob", amount, settleAt)
		if err != nil {
			return err
		}
		remaining = remaining.Sub(amount)
		fills = append(fills, f)
	}

	for _, f := range fills {
		out, err := engine.AttemptWithdraw(ctx, swap.WithdrawRequest{
			OrderID: order.ID,
			FillID:  f.ID,
			Role:    swap.RoleTaker,
			Caller:  "bob",
			Secret:  secret,
			Now:     settleAt,
		})
		if err != nil {
			return err
		}
		for _, a := range out.Actions {
			log.WithFields(logrus.Fields{
				"action":   a.Kind,
				"fill":     a.FillID,
				"amount":   a.Amount,
				"receiver": a.Receiver,
			}).Info("chain action emitted")
		}
	}

	final, err := engine.GetOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	log.WithField("status", final.Status).Info("swap settled")
	return nil
}
