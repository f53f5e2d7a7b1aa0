package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	v1 "github.com/Liquid9001/WeatherImageGeneratorEB/internal/controller/http/v1"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/usecase"
	psqlRepo "github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/psql"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/rabbitmq"
	s3Repo "github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/s3"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/status"
	"github.com/Liquid9001/WeatherImageGeneratorEB/pkg/client/psql"
	redisGo "github.com/Liquid9001/WeatherImageGeneratorEB/pkg/client/redis"
	s3ClientGo "github.com/Liquid9001/WeatherImageGeneratorEB/pkg/client/s3"
	"github.com/Liquid9001/WeatherImageGeneratorEB/pkg/middleware"
)

type Config struct {
	RedisAddr string
	RedisDB   int

	PSQLHost     string
	PSQLPort     int
	PSQLUser     string
	PSQLPassword string
	PSQLDBName   string
	PSQLSSLMode  string

	S3Host         string
	S3OutputBucket string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicRead   bool

	RabbitMQURL string
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := loadConfig(log)
	ctx := context.Background()

	redisClient, err := redisGo.NewRedisClient(ctx, redisGo.Config{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	db, err := psql.NewPostgresDB(psql.Config{
		Host:     cfg.PSQLHost,
		User:     cfg.PSQLUser,
		Password: cfg.PSQLPassword,
		DBName:   cfg.PSQLDBName,
		Port:     cfg.PSQLPort,
		SslMode:  cfg.PSQLSSLMode,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	if err := db.AutoMigrate(&entity.JobRecord{}); err != nil {
		log.Fatalf("failed to migrate job records: %v", err)
	}
	jobIndex := psqlRepo.NewGormJobRepo(db)

	s3Client, err := s3ClientGo.NewS3Client(cfg.S3Host, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3OutputBucket)
	if err != nil {
		log.Fatalf("failed to init s3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		log.Fatalf("failed to ensure output bucket: %v", err)
	}
	outputStore := s3Repo.NewS3Repo(s3Client)
	outputStore.PublicRead = cfg.S3PublicRead
	statusStore := status.NewStatusStore(outputStore)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	if err := rabbitmq.EnsureTopology(conn); err != nil {
		log.Fatalf("failed to declare queue topology: %v", err)
	}

	startPublisher, err := rabbitmq.NewRabbitPublisher(conn, rabbitmq.Exchange, rabbitmq.StartQueue)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}

	uc := usecase.NewJobUseCase(statusStore, jobIndex, startPublisher)
	handler := v1.NewJobHandler(uc)

	r := gin.Default()
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RedisClient: redisClient,
		Limit:       10,
		Window:      time.Second,
		KeyPrefix:   "rl:",
	})
	r.Use(rl)

	handler.Register(r.Group("/api"))

	log.Info("api service started")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("http server stopped: %v", err)
	}
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

	// REDIS
	redisHost := mustGetEnv("REDIS_HOST")
	redisPort := mustGetEnv("REDIS_PORT")
	redisDBStr := os.Getenv("REDIS_DB")
	if redisDBStr == "" {
		redisDBStr = "0"
	}
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		log.Fatalf("Invalid REDIS_DB value: %v", err)
	}

	// PSQL
	psqlPortStr := mustGetEnv("PSQL_PORT")
	psqlPort, err := strconv.Atoi(psqlPortStr)
	if err != nil {
		log.Fatalf("Invalid PSQL_PORT value: %v", err)
	}

	// RABBITMQ
	rmqUser := mustGetEnv("RABBITMQ_USER")
	rmqPassword := mustGetEnv("RABBITMQ_PASSWORD")
	rmqHost := mustGetEnv("RABBITMQ_HOST")
	rmqPort := mustGetEnv("RABBITMQ_PORT")
	rabbitMQURL := "amqp://" + rmqUser + ":" + rmqPassword + "@" + rmqHost + ":" + rmqPort + "/"

	return Config{
		RedisAddr: redisHost + ":" + redisPort,
		RedisDB:   redisDB,

		PSQLHost:     mustGetEnv("PSQL_HOST"),
		PSQLPort:     psqlPort,
		PSQLUser:     mustGetEnv("PSQL_USER"),
		PSQLPassword: mustGetEnv("PSQL_PASSWORD"),
		PSQLDBName:   mustGetEnv("PSQL_DB"),
		PSQLSSLMode:  mustGetEnv("PSQL_SSLMODE"),

		S3Host:         mustGetEnv("S3_HOST") + ":" + mustGetEnv("S3_PORT"),
		S3OutputBucket: mustGetEnv("S3_OUTPUT_BUCKET"),
		S3AccessKey:    mustGetEnv("S3_ACCESS_KEY"),
		S3SecretKey:    mustGetEnv("S3_SECRET_KEY"),
		S3PublicRead:   os.Getenv("S3_PUBLIC_READ") == "true",

		RabbitMQURL: rabbitMQURL,
	}
}
