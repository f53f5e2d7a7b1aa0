package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/usecase"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/rabbitmq"
	s3Repo "github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/s3"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/status"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/weather"
	s3ClientGo "github.com/Liquid9001/WeatherImageGeneratorEB/pkg/client/s3"
)

type Config struct {
	S3Host         string
	S3OutputBucket string
	S3AccessKey    string
	S3SecretKey    string

	RabbitMQURL string
	WeatherURL  string
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := loadConfig(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	s3Client, err := s3ClientGo.NewS3Client(cfg.S3Host, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3OutputBucket)
	if err != nil {
		log.Fatalf("failed to init s3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		log.Fatalf("failed to ensure output bucket: %v", err)
	}
	statusStore := status.NewStatusStore(s3Repo.NewS3Repo(s3Client))

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	if err := rabbitmq.EnsureTopology(conn); err != nil {
		log.Fatalf("failed to declare queue topology: %v", err)
	}

	taskPublisher, err := rabbitmq.NewRabbitPublisher(conn, rabbitmq.Exchange, rabbitmq.TaskQueue)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}

	weatherClient := weather.NewClient(&http.Client{Timeout: 30 * time.Second}, cfg.WeatherURL)

	fanOutUC := usecase.NewFanOutUseCase(weatherClient, statusStore, taskPublisher, log)

	consumer, err := rabbitmq.NewConsumer(conn, rabbitmq.StartQueue, fanOutUC.ProcessStart, log)
	if err != nil {
		log.Fatalf("failed to init consumer: %v", err)
	}

	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Fatalf("consumer stopped with error: %v", err)
		}
	}()

	log.Info("fan-out service started")
	<-sigCh
	log.Info("shutting down fan-out service...")
	cancel()
	time.Sleep(time.Second)
}

func loadConfig(log *logrus.Logger) Config {
	if err := godotenv.Load("./.env.local"); err != nil {
		log.Println("No .env file found. Falling back to OS environment variables.")
	}
	mustGetEnv := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			log.Fatalf("Environment variable %s is not set", key)
		}
		return val
	}

	rmqUser := mustGetEnv("RABBITMQ_USER")
	rmqPassword := mustGetEnv("RABBITMQ_PASSWORD")
	rmqHost := mustGetEnv("RABBITMQ_HOST")
	rmqPort := mustGetEnv("RABBITMQ_PORT")
	rabbitMQURL := "amqp://" + rmqUser + ":" + rmqPassword + "@" + rmqHost + ":" + rmqPort + "/"

	return Config{
		S3Host:         mustGetEnv("S3_HOST") + ":" + mustGetEnv("S3_PORT"),
		S3OutputBucket: mustGetEnv("S3_OUTPUT_BUCKET"),
		S3AccessKey:    mustGetEnv("S3_ACCESS_KEY"),
		S3SecretKey:    mustGetEnv("S3_SECRET_KEY"),

		RabbitMQURL: rabbitMQURL,
		WeatherURL:  os.Getenv("BUIENRADAR_API"),
	}
}
