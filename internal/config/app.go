package config

import (
	"fmt"
	"time"
)

type AppConfig struct {
	GRPCAddr string
	HTTPAddr string
	// Часовой пояс площадки: в нём считаются "сегодня" и границы дней аренды.
	Location *time.Location

	JWTSecret string
	JWTIssuer string

	// Пустой адрес — блокировки в памяти процесса (один инстанс).
	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration

	// При пустом списке уведомления идут только в лог.
	KafkaBrokers []string
	KafkaTopic   string

	// Без бакета договоры хранятся в памяти.
	S3Bucket   string
	S3Region   string
	S3Endpoint string

	// Вознаграждение за подтверждённую наводку, в центах.
	VacancyReward int64

	// Период фонового автозавершения аренд; 0 — выключено.
	SweepInterval time.Duration

	// Разрешить локальный выпуск токенов (только для разработки).
	DevTokens bool
}

func LoadAppConfig() (*AppConfig, error) {
	tz := getEnv("APP_TIMEZONE", "Europe/Berlin")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tz, err)
	}

	cfg := &AppConfig{
		GRPCAddr:      getEnv("GRPC_ADDR", ":50051"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		Location:      loc,
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTIssuer:     getEnv("JWT_ISSUER", "spacefindr"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		LockTTL:       getEnvDuration("LOCK_TTL", 10*time.Second),
		KafkaBrokers:  getEnvList("KAFKA_BROKERS"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "booking-events"),
		S3Bucket:      getEnv("S3_CONTRACT_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "eu-central-1"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		VacancyReward: int64(getEnvInt("VACANCY_REWARD_CENTS", 5000)),
		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),
		DevTokens:     getEnvBool("DEV_TOKENS", false),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("invalid app config: JWT_SECRET must not be empty")
	}
	if cfg.VacancyReward < 0 {
		return nil, fmt.Errorf("invalid app config: VACANCY_REWARD_CENTS must not be negative")
	}

	return cfg, nil
}
