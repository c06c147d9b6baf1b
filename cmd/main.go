package main

import (
	"context"
	"estate-desk/grpc"
	"estate-desk/internal"
	"estate-desk/observability"
	"estate-desk/repositories"
	"estate-desk/runtime"
	"estate-desk/runtime/workers"
	"estate-desk/services"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	gogrpc "google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns the lifecycle, deferred cleanups run before main exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Event fanout
	monitoring := observability.NewMonitoringManager(log, config.MetricInterval)
	supervisor := workers.NewSupervisor(log)
	orchestrator := runtime.NewOrchestrator(log, supervisor, runtime.NewRegistry(),
		monitoring, config.BufferSize, config.SinkTimeout)
	orchestrator.Add(runtime.NewAuditSink(log))

	if config.DebugPort != 0 {
		supervisor.Add(internal.NewDebugServer(log, db, config.DebugPort, internal.DeskMapper, monitoring.ToMap))
	}

	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		_ = orchestrator.Start(ctx)
	}()

	// 5. Stores & Services
	directory := repositories.NewDirectoryRepository(db)
	appointmentService := services.NewAppointmentService(log,
		repositories.NewAppointmentRepository(db, log), directory, orchestrator)
	messageService := services.NewMessageService(log,
		repositories.NewMessageRepository(db, log, config.LimitMessages), directory, orchestrator)

	// 6. gRPC Server Setup
	listener, err := net.Listen("tcp", config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Address(), err)
	}
	server, healthServer := grpc.NewServer(log, []byte(config.JWTSecret),
		grpc.NewAppointmentServer(log, appointmentService),
		grpc.NewMessageServer(log, messageService, orchestrator, monitoring, config.ConnectionBufferSize))

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting gRPC server", "address", config.Address(), "at", time.Now().UTC())
		if err := server.Serve(listener); err != nil && err != gogrpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		stop()
		<-orchestratorDone
		return err
	}

	// 8. Final Cleanup
	// Watch streams only end with their client, GracefulStop is bounded.
	healthServer.Shutdown()
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		server.Stop()
	}
	<-orchestratorDone
	log.Info("Program stopped cleanly")
	return nil
}
