package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Problem describes one configuration field that failed validation.
// Loading never aborts; callers decide whether problems are fatal.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Config struct {
	Env              string
	ServiceName      string
	HTTPPort         int
	LogLevel         string
	RequestTimeoutMS int
	RequestTimeout   time.Duration

	DatabaseURL      string
	DBMaxConns       int
	DBMinConns       int
	DBConnMaxIdleSec int
	DBConnMaxLifeSec int

	EventLogEnabled bool
	EventLogPath    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers  []string
	KafkaClientID string
	KafkaGroupID  string
	KafkaRetryMax int
	KafkaWriteMS  int

	AsynqRedisAddr   string
	AsynqRedisPass   string
	AsynqRedisDB     int
	AsynqQueue       string
	AsynqConcurrency int
	AsynqEnabled     bool

	AuditEnabled         bool
	CleanupRetentionDays int
	PopularTagThreshold  int
	FailedLoginThreshold int

	InfluxURL       string
	InfluxToken     string
	InfluxOrg       string
	InfluxBucket    string
	InfluxTimeoutMS int

	OtelEnabled     bool
	OtelEndpoint    string
	OtelInsecure    bool
	OtelSampleRatio float64
}

// Load reads configuration from the environment. It always returns a
// usable Config; validation failures are reported as Problems so that
// readiness probes can expose them.
func Load(serviceNameDefault string, httpPortDefault int) (Config, []Problem) {
	cfg := Config{
		Env:                  strings.TrimSpace(os.Getenv("ENV")),
		ServiceName:          serviceNameDefault,
		HTTPPort:             httpPortDefault,
		LogLevel:             "info",
		RequestTimeoutMS:     30000,
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:           10,
		DBMinConns:           1,
		DBConnMaxIdleSec:     300,
		DBConnMaxLifeSec:     1800,
		EventLogEnabled:      false,
		EventLogPath:         "events.log",
		RedisAddr:            strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:         parseCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaClientID:        strings.TrimSpace(os.Getenv("KAFKA_CLIENT_ID")),
		KafkaGroupID:         strings.TrimSpace(os.Getenv("KAFKA_CONSUMER_GROUP")),
		KafkaRetryMax:        5,
		KafkaWriteMS:         5000,
		AsynqRedisAddr:       strings.TrimSpace(os.Getenv("ASYNQ_REDIS_ADDR")),
		AsynqRedisPass:       os.Getenv("ASYNQ_REDIS_PASSWORD"),
		AsynqQueue:           "default",
		AsynqConcurrency:     10,
		CleanupRetentionDays: 30,
		PopularTagThreshold:  25,
		FailedLoginThreshold: 5,
		InfluxURL:            strings.TrimSpace(os.Getenv("INFLUX_URL")),
		InfluxToken:          strings.TrimSpace(os.Getenv("INFLUX_TOKEN")),
		InfluxOrg:            strings.TrimSpace(os.Getenv("INFLUX_ORG")),
		InfluxBucket:         strings.TrimSpace(os.Getenv("INFLUX_BUCKET")),
		InfluxTimeoutMS:      5000,
		OtelEndpoint:         strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OtelInsecure:         true,
		OtelSampleRatio:      1.0,
	}

	problems := make([]Problem, 0, 4)

	readString(&cfg.LogLevel, "LOG_LEVEL")
	readString(&cfg.EventLogPath, "EVENT_LOG_PATH")
	readString(&cfg.AsynqQueue, "ASYNQ_QUEUE")

	readInt(&cfg.HTTPPort, "HTTP_PORT", &problems)
	readInt(&cfg.RequestTimeoutMS, "REQUEST_TIMEOUT_MS", &problems)
	readInt(&cfg.DBMaxConns, "DB_MAX_CONNS", &problems)
	readInt(&cfg.DBMinConns, "DB_MIN_CONNS", &problems)
	readInt(&cfg.DBConnMaxIdleSec, "DB_CONN_MAX_IDLE_SECONDS", &problems)
	readInt(&cfg.DBConnMaxLifeSec, "DB_CONN_MAX_LIFE_SECONDS", &problems)
	readInt(&cfg.RedisDB, "REDIS_DB", &problems)
	readInt(&cfg.KafkaRetryMax, "KAFKA_RETRY_MAX", &problems)
	readInt(&cfg.KafkaWriteMS, "KAFKA_WRITE_TIMEOUT_MS", &problems)
	readInt(&cfg.AsynqRedisDB, "ASYNQ_REDIS_DB", &problems)
	readInt(&cfg.AsynqConcurrency, "ASYNQ_CONCURRENCY", &problems)
	readInt(&cfg.CleanupRetentionDays, "CLEANUP_RETENTION_DAYS", &problems)
	readInt(&cfg.PopularTagThreshold, "POPULAR_TAG_THRESHOLD", &problems)
	readInt(&cfg.FailedLoginThreshold, "FAILED_LOGIN_THRESHOLD", &problems)
	readInt(&cfg.InfluxTimeoutMS, "INFLUX_TIMEOUT_MS", &problems)

	readBool(&cfg.EventLogEnabled, "EVENT_LOG_ENABLED", &problems)
	readBool(&cfg.AsynqEnabled, "ASYNQ_ENABLED", &problems)
	readBool(&cfg.AuditEnabled, "AUDIT_ENABLED", &problems)
	readBool(&cfg.OtelEnabled, "OTEL_ENABLED", &problems)
	readBool(&cfg.OtelInsecure, "OTEL_EXPORTER_OTLP_INSECURE", &problems)

	readFloat(&cfg.OtelSampleRatio, "OTEL_SAMPLE_RATIO", &problems)

	if cfg.Env == "" {
		cfg.Env = "dev"
		problems = append(problems, Problem{Field: "ENV", Message: "ENV is required"})
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		problems = append(problems, Problem{Field: "HTTP_PORT", Message: "HTTP_PORT must be 1-65535"})
		cfg.HTTPPort = httpPortDefault
	}
	if cfg.RequestTimeoutMS <= 0 {
		problems = append(problems, Problem{Field: "REQUEST_TIMEOUT_MS", Message: "REQUEST_TIMEOUT_MS must be > 0"})
		cfg.RequestTimeoutMS = 30000
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if cfg.DBMaxConns <= 0 {
		problems = append(problems, Problem{Field: "DB_MAX_CONNS", Message: "DB_MAX_CONNS must be > 0"})
		cfg.DBMaxConns = 10
	}
	if cfg.DBMinConns < 0 {
		problems = append(problems, Problem{Field: "DB_MIN_CONNS", Message: "DB_MIN_CONNS must be >= 0"})
		cfg.DBMinConns = 1
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		problems = append(problems, Problem{Field: "DB_MIN_CONNS", Message: "DB_MIN_CONNS must be <= DB_MAX_CONNS"})
		cfg.DBMinConns = cfg.DBMaxConns
	}
	if cfg.EventLogEnabled && strings.TrimSpace(cfg.EventLogPath) == "" {
		problems = append(problems, Problem{Field: "EVENT_LOG_PATH", Message: "EVENT_LOG_PATH is required when EVENT_LOG_ENABLED"})
		cfg.EventLogEnabled = false
	}
	if cfg.AsynqConcurrency <= 0 {
		problems = append(problems, Problem{Field: "ASYNQ_CONCURRENCY", Message: "ASYNQ_CONCURRENCY must be > 0"})
		cfg.AsynqConcurrency = 10
	}
	if cfg.CleanupRetentionDays <= 0 {
		problems = append(problems, Problem{Field: "CLEANUP_RETENTION_DAYS", Message: "CLEANUP_RETENTION_DAYS must be > 0"})
		cfg.CleanupRetentionDays = 30
	}
	if cfg.OtelSampleRatio < 0 || cfg.OtelSampleRatio > 1 {
		problems = append(problems, Problem{Field: "OTEL_SAMPLE_RATIO", Message: "OTEL_SAMPLE_RATIO must be within [0,1]"})
		cfg.OtelSampleRatio = 1.0
	}

	return cfg, problems
}

func readString(dst *string, key string) {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		*dst = raw
	}
}

func readInt(dst *int, key string, problems *[]Problem) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*problems = append(*problems, Problem{Field: key, Message: fmt.Sprintf("%s must be an integer", key)})
		return
	}
	*dst = v
}

func readBool(dst *bool, key string, problems *[]Problem) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return
	}
	switch raw {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		*problems = append(*problems, Problem{Field: key, Message: fmt.Sprintf("%s must be a boolean", key)})
	}
}

func readFloat(dst *float64, key string, problems *[]Problem) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*problems = append(*problems, Problem{Field: key, Message: fmt.Sprintf("%s must be a number", key)})
		return
	}
	*dst = v
}

func parseCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
