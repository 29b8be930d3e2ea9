package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	JWTSecret  string

	// AuthDB holds the credential store ("analitica_fondos" in the legacy
	// deployment); ReportDB holds the enrollment reporting view.
	AuthDB   DatabaseConfig
	ReportDB DatabaseConfig

	Audit   AuditConfig
	Archive ArchiveConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// AuditConfig selects the broker used for audit events. Broker "none"
// disables publishing entirely.
type AuditConfig struct {
	Broker   string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

// ArchiveConfig selects the object store that keeps copies of CSV exports.
// Backend "none" disables archiving.
type ArchiveConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	CredentialsFile string
	Bucket          string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	authDB := DatabaseConfig{
		Host:     getEnv("AUTH_DB_HOST", "localhost"),
		Port:     getEnvInt("AUTH_DB_PORT", 5432),
		User:     getEnv("AUTH_DB_USER", "portal"),
		Password: getEnv("AUTH_DB_PASSWORD", "password"),
		DBName:   getEnv("AUTH_DB_NAME", "analitica_fondos"),
		UseSSL:   getEnvBool("AUTH_DB_SSL", false),
	}

	reportDB := DatabaseConfig{
		Host:     getEnv("REPORT_DB_HOST", authDB.Host),
		Port:     getEnvInt("REPORT_DB_PORT", authDB.Port),
		User:     getEnv("REPORT_DB_USER", authDB.User),
		Password: getEnv("REPORT_DB_PASSWORD", authDB.Password),
		DBName:   getEnv("REPORT_DB_NAME", "convocatoria_sapiencia"),
		UseSSL:   getEnvBool("REPORT_DB_SSL", false),
	}

	audit := AuditConfig{
		Broker:  getEnv("AUDIT_BROKER", "none"),
		Channel: getEnv("AUDIT_CHANNEL", "portal-audit"),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
	}

	archive := ArchiveConfig{
		Backend: getEnv("ARCHIVE_BACKEND", "none"),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "matricula-exports"),
			UseSSL:    getEnvBool("MINIO_SSL", false),
		},
		GCS: GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			Bucket:          getEnv("GCS_BUCKET", "matricula-exports"),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		AuthDB:     authDB,
		ReportDB:   reportDB,
		Audit:      audit,
		Archive:    archive,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "1" || valueStr == "true" || valueStr == "TRUE"
	}
	return defaultValue
}
