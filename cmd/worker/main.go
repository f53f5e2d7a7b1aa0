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
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/imagesource"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/render"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/rabbitmq"
	s3Repo "github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/s3"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/status"
	s3ClientGo "github.com/Liquid9001/WeatherImageGeneratorEB/pkg/client/s3"
)

type Config struct {
	S3Host         string
	S3OutputBucket string
	S3CacheBucket  string
	S3AccessKey    string
	S3SecretKey    string

	RabbitMQURL string

	PexelsAPIKey     string
	FallbackImageURL string
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := loadConfig(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	outputClient, err := s3ClientGo.NewS3Client(cfg.S3Host, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3OutputBucket)
	if err != nil {
		log.Fatalf("failed to init s3 client: %v", err)
	}
	if err := outputClient.EnsureBucket(ctx); err != nil {
		log.Fatalf("failed to ensure output bucket: %v", err)
	}
	statusStore := status.NewStatusStore(s3Repo.NewS3Repo(outputClient))

	cacheClient, err := s3ClientGo.NewS3Client(cfg.S3Host, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3CacheBucket)
	if err != nil {
		log.Fatalf("failed to init cache s3 client: %v", err)
	}
	if err := cacheClient.EnsureBucket(ctx); err != nil {
		log.Fatalf("failed to ensure cache bucket: %v", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	provider := imagesource.NewProvider(httpClient, cfg.PexelsAPIKey, cfg.FallbackImageURL)
	backgrounds := usecase.NewBackgroundCache(s3Repo.NewS3Repo(cacheClient), provider)

	renderer, err := render.NewRenderer()
	if err != nil {
		log.Fatalf("failed to init renderer: %v", err)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	if err := rabbitmq.EnsureTopology(conn); err != nil {
		log.Fatalf("failed to declare queue topology: %v", err)
	}

	taskUC := usecase.NewTaskUseCase(backgrounds, renderer, statusStore, log)

	consumer, err := rabbitmq.NewConsumer(conn, rabbitmq.TaskQueue, taskUC.ProcessTask, log)
	if err != nil {
		log.Fatalf("failed to init consumer: %v", err)
	}

	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Fatalf("consumer stopped with error: %v", err)
		}
	}()

	log.Info("worker service started")
	<-sigCh
	log.Info("shutting down worker service...")
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
		S3CacheBucket:  mustGetEnv("S3_CACHE_BUCKET"),
		S3AccessKey:    mustGetEnv("S3_ACCESS_KEY"),
		S3SecretKey:    mustGetEnv("S3_SECRET_KEY"),

		RabbitMQURL: rabbitMQURL,

		PexelsAPIKey:     os.Getenv("PEXELS_API_KEY"),
		FallbackImageURL: os.Getenv("FALLBACK_IMAGE_URL"),
	}
}
