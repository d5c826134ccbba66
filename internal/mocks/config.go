package mocks

import (
	"time"

	"github.com/cradoe/onboard/internal/config"
)

// MockConfig returns a configuration for tests: in-memory storage, fixed OTP
// codes and no delays.
func MockConfig() *config.Config {
	cfg := &config.Config{
		BaseURL:  "http://localhost",
		HttpPort: 8080,
	}

	cfg.Storage.Driver = "memory"
	cfg.Jwt.SecretKey = "test_secret"
	cfg.Jwt.TTL = time.Hour
	cfg.Notifications.Email = ""
	cfg.Smtp.From = "Onboard <no-reply@example.com>"
	cfg.Otp.EmailCode = "123456"
	cfg.Otp.MobileCode = "654321"
	cfg.Otp.SendDelay = time.Millisecond
	cfg.Cors.AllowedOrigins = []string{"*"}
	cfg.NameSyncDelay = time.Millisecond
	cfg.Devices.IdleTTL = time.Hour

	return cfg
}
