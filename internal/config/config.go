package config

import (
	"fmt"
	"net/http"
	"time"
)

type DBConfig struct {
	Username string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		sslMode,
	)
}

type ServerConfig struct {
	Port           string
	Handler        http.Handler
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type DirectoryConfig struct {
	API       string
	SecretKey string
	Timeout   time.Duration
}

type EventsConfig struct {
	Broker             string // "rabbitmq", "nats" or "none"
	RabbitMQConnString string
	NatsURL            string
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Env         string
}
