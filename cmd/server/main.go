package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"liyu1981.xyz/iaq-telemetry-service/pkg/cache"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/db"
	iotGrpc "liyu1981.xyz/iaq-telemetry-service/pkg/grpc"
	iotHttp "liyu1981.xyz/iaq-telemetry-service/pkg/http"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	iotMqtt "liyu1981.xyz/iaq-telemetry-service/pkg/mqtt"
	"liyu1981.xyz/iaq-telemetry-service/pkg/notify"
	"liyu1981.xyz/iaq-telemetry-service/pkg/simulator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := common.GetLogger()
	transport := cfg.Transport

	database, err := db.Open(db.UseDialector(transport.DBType, transport.DBPath, transport.DBDSN))
	if err != nil {
		logger.Fatal("Failed to open database", zap.String("db_type", transport.DBType), zap.Error(err))
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publishers := []notify.Named{notify.Log{}}
	if len(transport.KafkaBrokers) > 0 {
		k := notify.NewKafka(transport.KafkaBrokers, transport.KafkaTopicTransitions)
		defer k.Close()
		publishers = append(publishers, k)
		logger.Info("Publishing transitions to Kafka",
			zap.Strings("brokers", transport.KafkaBrokers),
			zap.String("topic", transport.KafkaTopicTransitions))
	}
	var mirror *cache.StateMirror
	if transport.RedisAddr != "" {
		client, err := cache.Connect(ctx, transport.RedisAddr, transport.RedisPassword)
		if err != nil {
			// the mirror is optional; the core keeps working without it
			logger.Warn("Redis unavailable, alert state mirror disabled", zap.Error(err))
		} else {
			defer client.Close()
			mirror = cache.NewStateMirror(client)
			publishers = append(publishers, mirror)
		}
	}

	core := iot.New(*database, *cfg, iot.WithPublisher(notify.NewMulti(publishers...)))
	if err := core.Alert.RebuildMachine(ctx); err != nil {
		logger.Fatal("Failed to rebuild alert machine", zap.Error(err))
	}
	if mirror != nil {
		if err := mirror.Seed(ctx, core.OpenStates(), time.Now().UTC()); err != nil {
			logger.Warn("Failed to seed alert state mirror", zap.Error(err))
		}
	}

	sim := simulator.New(*database, core.Sensor, core, *cfg)
	if err := sim.Restore(ctx); err != nil {
		logger.Warn("Failed to restore simulator settings, using defaults", zap.Error(err))
	}
	core.WithServices(iot.ServiceOpts{Simulator: sim})

	go core.RunLastSeenFlush(ctx)
	go func() {
		if err := core.RunRetention(ctx); err != nil {
			logger.Error("Retention sweeper stopped", zap.Error(err))
		}
	}()
	go sim.Run(ctx)

	// one bucket per sensor across every transport
	limiter := iot.NewIngestLimiter(transport.DefaultRate, transport.DefaultBurst)
	limiterFields := []zap.Field{
		zap.Float64("default_rate", transport.DefaultRate),
		zap.Int("default_burst", transport.DefaultBurst),
	}

	if transport.GRPCHostPort != "" {
		iotGrpcServer := &iotGrpc.IOTServer{
			Core:       core,
			Limiter:    limiter,
			AdminToken: transport.AdminToken,
		}
		interceptor := iotGrpcServer.CreateRateLimitInterceptor([]any{
			&iotGrpc.IngestRequest{},
		})
		s := grpc.NewServer(grpc.UnaryInterceptor(interceptor))
		iotGrpc.RegisterTelemetryServer(s, iotGrpcServer)
		logger.Info("gRPC server created", limiterFields...)

		listener, err := net.Listen("tcp", transport.GRPCHostPort)
		if err != nil {
			logger.Fatal("Failed to listen", zap.String("addr", transport.GRPCHostPort), zap.Error(err))
		}
		go func() {
			logger.Info("Starting gRPC server on " + transport.GRPCHostPort)
			if err := s.Serve(listener); err != nil {
				logger.Error("gRPC server failed to serve", zap.Error(err))
			}
		}()
		defer s.GracefulStop()
	}

	if transport.MQTTBroker != "" {
		hostname, _ := os.Hostname()
		sub := iotMqtt.NewSubscriber(transport.MQTTBroker, "iaq-telemetry-"+hostname+"-"+uuid.NewString()[:8], core, limiter)
		if err := sub.Start(ctx); err != nil {
			logger.Error("MQTT ingest disabled", zap.String("broker", transport.MQTTBroker), zap.Error(err))
		} else {
			defer sub.Stop()
			logger.Info("MQTT ingest connected", zap.String("broker", transport.MQTTBroker))
		}
	}

	httpHostPort := transport.HTTPHostPort
	if httpHostPort == "" {
		// fallback to default http port
		httpHostPort = ":1080"
	}
	rs := &iotHttp.RestfulServer{
		Server:     gin.Default(),
		Core:       core,
		Limiter:    limiter,
		AdminToken: transport.AdminToken,
	}
	rs.Setup()
	logger.Info("HTTP server created", limiterFields...)

	srv := &http.Server{Addr: httpHostPort, Handler: rs.Server}
	go func() {
		logger.Info("Starting HTTP server on " + httpHostPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed to serve", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
}
