package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-streamer/internal/api"
	"github.com/annel0/voxel-streamer/internal/config"
	"github.com/annel0/voxel-streamer/internal/logging"
	"github.com/annel0/voxel-streamer/internal/observability"
	"github.com/annel0/voxel-streamer/internal/render"
	"github.com/annel0/voxel-streamer/internal/world"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (or STREAMER_CONFIG)")
		frames     = flag.Int("frames", 0, "Number of frames to simulate (0 - until signal)")
		fps        = flag.Int("fps", 60, "Simulated frames per second")
		speed      = flag.Float64("speed", 24, "Observer speed, blocks per second")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitDefaultLogger("streamer", cfg.Logging.Dir); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefault()
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logging.SetDefaultLevel(level)
	if err := logging.GetLoggerManager().ApplyLevels(cfg.Logging.Components); err != nil {
		log.Fatalf("❌ Ошибка уровней логирования: %v", err)
	}
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()

	runID := uuid.NewString()
	logging.Info("🧱 Запуск voxel-streamer (run=%s)", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := observability.ShutdownFunc(observability.NoopShutdown)
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err = observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, runID)
		if err != nil {
			logging.Warn("OpenTelemetry недоступен: %v", err)
			shutdownTelemetry = observability.NoopShutdown
		}
	}

	if err := run(ctx, cfg, *frames, *fps, *speed); err != nil {
		logging.Error("❌ %v", err)
		_ = shutdownTelemetry(context.Background())
		os.Exit(1)
	}

	if err := shutdownTelemetry(context.Background()); err != nil {
		logging.Warn("Ошибка остановки телеметрии: %v", err)
	}
	logging.Info("👋 voxel-streamer остановлен")
}

func run(ctx context.Context, cfg *config.Config, frames, fps int, speed float64) error {
	terrain, err := world.NewTerrain(cfg.Terrain)
	if err != nil {
		return fmt.Errorf("генератор ландшафта: %w", err)
	}

	manager, err := world.NewManager(world.Options{
		ViewDistance: cfg.Streamer.ViewDistance,
		Workers:      cfg.Streamer.WorkerCount(),
		SeaLevel:     cfg.Streamer.SeaLevel,
		Terrain:      terrain,
		Registerer:   prometheus.DefaultRegisterer,
		Logger:       logging.GetStreamerLogger(),
		WorkerLogger: logging.GetWorkerLogger(),
	})
	if err != nil {
		return fmt.Errorf("менеджер чанков: %w", err)
	}
	defer manager.Stop()

	publisher := render.NewPublisher(render.NewMemoryUploader(), render.NewSparseRegistry(), logging.GetRenderLogger())
	defer publisher.Clear()

	if cfg.Server.Enabled {
		server := api.NewRestServer(api.Config{
			Port:      fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
			Chunks:    manager,
			Publisher: publisher,
			Logger:    logging.GetAPILogger(),
		})
		go func() {
			if err := server.Start(); err != nil {
				logging.Error("❌ Ошибка отладочного API: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = server.Stop(shutdownCtx)
		}()
	}

	if fps < 1 {
		fps = 60
	}
	dt := time.Second / time.Duration(fps)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	report := time.NewTicker(2 * time.Second)
	defer report.Stop()

	// Наблюдатель идёт на восток, покачиваясь по Z
	var x, z float64
	for frame := 0; frames == 0 || frame < frames; frame++ {
		select {
		case <-ctx.Done():
			return nil
		case <-report.C:
			st := manager.Stats()
			ps := publisher.Stats()
			logging.Info("📊 центр=(%d,%d) сгенерировано=%d сеток=%d устаревших=%d объектов=%d очередь=%d",
				st.Center.X, st.Center.Z, st.GeneratedTotal, st.MeshedTotal, st.StaleTotal, ps.Objects, st.QueuedTasks)
		case <-ticker.C:
		}

		x += speed * dt.Seconds()
		z = 64 * math.Sin(x/256)
		if err := manager.UpdateObserverPosition(x, z); err != nil {
			return err
		}
		manager.DrainReady(publisher)
	}
	return nil
}
