package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"

	"ignitex/internal/engine"
	"ignitex/internal/feed"
	"ignitex/internal/notify"
	"ignitex/internal/obs"
	"ignitex/internal/ops"
	"ignitex/internal/store"
	"ignitex/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config (empty=defaults)")
	paper := flag.Bool("paper", false, "Force the synthetic market data provider")
	metricsAddr := flag.String("metrics-addr", ":9190", "Prometheus /metrics listen address (empty=disable)")
	pyroscopeAddr := flag.String("pyroscope-addr", "", "Pyroscope server address (empty=disable)")
	flag.Parse()

	// Optional .env for store and broker credentials.
	_ = godotenv.Load()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "ignitex.engine",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() { _ = profiler.Stop() }()
	}

	provider := buildProvider(loaded, *paper)
	st := buildStore(loaded)
	defer func() { _ = st.Close() }()

	eng := engine.New(loaded, provider, st)

	var publisher *notify.KafkaPublisher
	if len(loaded.Kafka.Brokers) > 0 {
		publisher, err = notify.NewKafkaPublisher(loaded.Kafka.Brokers, loaded.Kafka.Topic)
		if err != nil {
			logs.Warnf("kafka publisher disabled: %v", err)
		} else {
			publisher.Subscribe(eng)
			defer func() { _ = publisher.Close() }()
		}
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logs.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("engine start failed: %v", err)
	}

	<-ctx.Done()
	eng.Stop()
}

func buildProvider(loaded ops.Loaded, paper bool) feed.Provider {
	if paper || loaded.Feed.Mode != "rest" {
		seed := loaded.Feed.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return feed.NewSynthetic(loaded.Feed.BasePrices, loaded.Feed.VolPct, seed)
	}
	return feed.NewRest(loaded.Feed.BaseURL, loaded.Feed.Timeout)
}

// buildStore prefers PostgreSQL and degrades to memory-only when the
// database is unreachable or persistence is disabled.
func buildStore(loaded ops.Loaded) store.Store {
	var inner store.Store = store.NewMemory()
	if !loaded.Store.Disabled {
		pg, err := store.NewPostgres(conn.OptionFromEnv())
		if err != nil {
			logs.Warnf("postgres unavailable, running memory-only: %v", err)
		} else {
			inner = pg
		}
	}
	d := store.NewDebounced(inner, loaded.Store.DebounceWindow)
	d.OnError(func(error) { obs.IncStoreError() })
	return d
}
