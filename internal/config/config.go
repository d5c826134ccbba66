package config

import "time"

type Config struct {
	BaseURL  string
	HttpPort int
	Storage  struct {
		// Driver selects the progress store medium: memory, redis, postgres or mongo.
		Driver string
	}
	Redis struct {
		Addr string
		DB   int
	}
	Db struct {
		Dsn         string
		Automigrate bool
	}
	Mongo struct {
		URI      string
		Database string
	}
	Jwt struct {
		SecretKey string
		TTL       time.Duration
	}
	Notifications struct {
		Email string
	}
	Smtp struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	FileUploader struct {
		CloudName string
		ApiKey    string
		ApiSecret string
	}
	KafkaServers string
	Otp          struct {
		EmailCode  string
		MobileCode string
		SendDelay  time.Duration
	}
	Password struct {
		Hashing bool
	}
	Cors struct {
		AllowedOrigins []string
	}
	NameSyncDelay time.Duration
	Devices       struct {
		// IdleTTL is how long an unused device session stays in memory.
		IdleTTL time.Duration
	}
}

// Uploads reports whether object storage credentials are configured.
func (c Config) Uploads() bool {
	return c.FileUploader.CloudName != "" && c.FileUploader.ApiKey != "" && c.FileUploader.ApiSecret != ""
}
