package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swarmpay/config"
	"swarmpay/core/state"
	"swarmpay/native/access"
	"swarmpay/native/fees"
	"swarmpay/native/moderation"
	"swarmpay/native/pinner"
	"swarmpay/native/registry"
	"swarmpay/native/staking"
	"swarmpay/native/trust"
	"swarmpay/observability"
	"swarmpay/observability/logging"
	oteltel "swarmpay/observability/otel"
	"swarmpay/storage"
)

// Engines bundles the wired settlement engines behind one handle.
type Engines struct {
	Collections *registry.Directory
	Access      *access.Engine
	Staking     *staking.Engine
	Pinners     *pinner.Engine
	Fees        *fees.Engine
	Trust       *trust.Registry
	Moderation  *moderation.Engine
}

func buildEngines(cfg *config.Node, manager *state.Manager, logger *slog.Logger) (*Engines, error) {
	p := cfg.Protocol
	var admin, treasury, stakerTreasury [20]byte
	var err error
	if p.Admin != "" {
		if admin, err = p.AdminAddress(); err != nil {
			return nil, fmt.Errorf("decode admin: %w", err)
		}
	}
	if p.Treasury != "" {
		if treasury, err = p.TreasuryAddress(); err != nil {
			return nil, fmt.Errorf("decode treasury: %w", err)
		}
	}
	if p.StakerTreasury != "" {
		if stakerTreasury, err = p.StakerTreasuryAddress(); err != nil {
			return nil, fmt.Errorf("decode staker treasury: %w", err)
		}
	}
	bridge := observability.NewEventBridge(logger, nil)

	collections := registry.NewDirectory(manager)
	trustReg := trust.NewRegistry(manager)

	stakingEngine := staking.NewEngine()
	stakingEngine.SetState(manager)
	stakingEngine.SetCollections(collections)
	stakingEngine.SetEmitter(bridge)

	pinnerEngine := pinner.NewEngine()
	pinnerEngine.SetState(manager)
	pinnerEngine.SetCollections(collections)
	pinnerEngine.SetEmitter(bridge)

	feeEngine := fees.NewEngine()
	feeEngine.SetState(manager)
	feeEngine.SetCollections(collections)
	feeEngine.SetPinnerLedger(pinnerEngine)
	feeEngine.SetAdmin(admin)
	feeEngine.SetStakerTreasury(stakerTreasury)
	feeEngine.SetEmitter(bridge)

	accessEngine := access.NewEngine()
	accessEngine.SetState(manager)
	accessEngine.SetCollections(collections)
	accessEngine.SetStakingPool(stakingEngine)
	accessEngine.SetTrustRegistry(trustReg)
	accessEngine.SetEmitter(bridge)
	accessEngine.SetFeeBasisPoints(p.FeeBasisPoints)
	accessEngine.SetTreasury(treasury)
	accessEngine.SetMaxPeerListLength(p.MaxPeerListLength)
	accessEngine.SetExpirySeconds(p.EscrowExpirySeconds)
	accessEngine.SetMaxReferenceSize(config.MaxEncryptedReferenceSize())

	moderationEngine := moderation.NewEngine()
	moderationEngine.SetState(manager)
	moderationEngine.SetCollections(collections)
	moderationEngine.SetEmitter(bridge)
	moderationEngine.SetAdmin(admin)
	moderationEngine.SetTreasury(treasury)
	moderationEngine.SetStakeToken(p.StakeToken)
	moderationEngine.SetStakeMinimum(new(big.Int).SetUint64(p.ModeratorStakeMinimum))
	moderationEngine.SetMaxReasonLength(config.MaxReasonLength())

	return &Engines{
		Collections: collections,
		Access:      accessEngine,
		Staking:     stakingEngine,
		Pinners:     pinnerEngine,
		Fees:        feeEngine,
		Trust:       trustReg,
		Moderation:  moderationEngine,
	}, nil
}

func main() {
	configFile := flag.String("config", "./swarmpayd.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := strings.TrimSpace(cfg.Environment)
	var logger *slog.Logger
	if strings.TrimSpace(cfg.LogFile) != "" {
		logger, err = logging.SetupFile("swarmpayd", env, cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
	} else {
		logger = logging.Setup("swarmpayd", env)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := strings.TrimSpace(cfg.OTLPEndpoint); endpoint != "" {
		shutdown, err := oteltel.Init(ctx, oteltel.Config{
			ServiceName: "swarmpayd",
			Environment: env,
			Endpoint:    endpoint,
			Insecure:    cfg.OTLPInsecure,
			Headers:     oteltel.ParseHeaders(cfg.OTLPHeaders),
			Metrics:     true,
			Traces:      true,
		})
		if err != nil {
			logger.Error("failed to initialise telemetry", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", slog.Any("error", err))
			}
		}()
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := ensureProtocol(manager, cfg.Protocol); err != nil {
		logger.Error("protocol record rejected", slog.Any("error", err))
		os.Exit(1)
	}
	engines, err := buildEngines(cfg, manager, logger)
	if err != nil {
		logger.Error("failed to wire engines", slog.Any("error", err))
		os.Exit(1)
	}
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	mountInspection(router, engines)

	server := &http.Server{
		Addr:              cfg.MetricsListen,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listener started", slog.String("addr", cfg.MetricsListen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", slog.Any("error", err))
			stop()
		}
	}()

	logger.Info("swarmpayd started",
		slog.Uint64("protocolVersion", cfg.Protocol.Version),
		slog.String("dataDir", cfg.DataDir),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics listener shutdown failed", slog.Any("error", err))
	}
}
