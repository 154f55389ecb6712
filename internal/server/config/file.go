package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/dmitrijs2005/taskkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration, shared by JSON and
// YAML files. Durations use timex.Duration so files may say "15m" or give
// integer nanoseconds.
type FileConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN      string `json:"database_dsn" yaml:"database_dsn"`
	LogLevel         string `json:"log_level" yaml:"log_level"`

	SecretKey                         string         `json:"secret_key" yaml:"secret_key"`
	SigningAlgorithm                  string         `json:"signing_algorithm" yaml:"signing_algorithm"`
	AccessTokenValidityDuration       timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	VerificationTokenValidityDuration timex.Duration `json:"verification_token_validity_duration" yaml:"verification_token_validity_duration"`
	ResetTokenValidityDuration        timex.Duration `json:"reset_token_validity_duration" yaml:"reset_token_validity_duration"`
	BcryptCost                        int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	PasswordMinLength                 int            `json:"password_min_length" yaml:"password_min_length"`
	RequireVerifiedEmail              bool           `json:"require_verified_email" yaml:"require_verified_email"`
	HideResetToken                    bool           `json:"hide_reset_token" yaml:"hide_reset_token"`

	PublicBaseURL    string `json:"public_base_url" yaml:"public_base_url"`
	FrontendLoginURL string `json:"frontend_login_url" yaml:"frontend_login_url"`
	StaticDir        string `json:"static_dir" yaml:"static_dir"`

	MailProvider    string         `json:"mail_provider" yaml:"mail_provider"`
	MailAPIKey      string         `json:"mail_api_key" yaml:"mail_api_key"`
	MailAPIEndpoint string         `json:"mail_api_endpoint" yaml:"mail_api_endpoint"`
	MailFrom        string         `json:"mail_from" yaml:"mail_from"`
	SMTPHost        string         `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort        int            `json:"smtp_port" yaml:"smtp_port"`
	SMTPUser        string         `json:"smtp_user" yaml:"smtp_user"`
	SMTPPassword    string         `json:"smtp_password" yaml:"smtp_password"`
	MailSendTimeout timex.Duration `json:"mail_send_timeout" yaml:"mail_send_timeout"`
	MailQueueSize   int            `json:"mail_queue_size" yaml:"mail_queue_size"`
	MailWorkers     int            `json:"mail_workers" yaml:"mail_workers"`

	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`

	StorageBackend string `json:"storage_backend" yaml:"storage_backend"`
	UploadDir      string `json:"upload_dir" yaml:"upload_dir"`
	S3RootUser     string `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`

	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	RateLimitRPS       float64  `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst     int      `json:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// parseFile overlays Config with values from the file named by -c/--config.
// Without the flag nothing is loaded. Keys missing from the file keep their
// current values. The decoder is chosen by extension: .yaml and .yml use
// YAML, everything else JSON.
//
// Panics if the file cannot be read or decoded.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := toFileConfig(config)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.applyTo(config)
}

func toFileConfig(c *Config) *FileConfig {
	return &FileConfig{
		EndpointAddrHTTP:                  c.EndpointAddrHTTP,
		DatabaseDSN:                       c.DatabaseDSN,
		LogLevel:                          c.LogLevel,
		SecretKey:                         c.SecretKey,
		SigningAlgorithm:                  c.SigningAlgorithm,
		AccessTokenValidityDuration:       timex.Duration{Duration: c.AccessTokenValidityDuration},
		VerificationTokenValidityDuration: timex.Duration{Duration: c.VerificationTokenValidityDuration},
		ResetTokenValidityDuration:        timex.Duration{Duration: c.ResetTokenValidityDuration},
		BcryptCost:                        c.BcryptCost,
		PasswordMinLength:                 c.PasswordMinLength,
		RequireVerifiedEmail:              c.RequireVerifiedEmail,
		HideResetToken:                    c.HideResetToken,
		PublicBaseURL:                     c.PublicBaseURL,
		FrontendLoginURL:                  c.FrontendLoginURL,
		StaticDir:                         c.StaticDir,
		MailProvider:                      c.MailProvider,
		MailAPIKey:                        c.MailAPIKey,
		MailAPIEndpoint:                   c.MailAPIEndpoint,
		MailFrom:                          c.MailFrom,
		SMTPHost:                          c.SMTPHost,
		SMTPPort:                          c.SMTPPort,
		SMTPUser:                          c.SMTPUser,
		SMTPPassword:                      c.SMTPPassword,
		MailSendTimeout:                   timex.Duration{Duration: c.MailSendTimeout},
		MailQueueSize:                     c.MailQueueSize,
		MailWorkers:                       c.MailWorkers,
		RedisAddr:                         c.RedisAddr,
		RedisPassword:                     c.RedisPassword,
		RedisDB:                           c.RedisDB,
		StorageBackend:                    c.StorageBackend,
		UploadDir:                         c.UploadDir,
		S3RootUser:                        c.S3RootUser,
		S3RootPassword:                    c.S3RootPassword,
		S3Bucket:                          c.S3Bucket,
		S3Region:                          c.S3Region,
		S3BaseEndpoint:                    c.S3BaseEndpoint,
		CORSAllowedOrigins:                c.CORSAllowedOrigins,
		RateLimitRPS:                      c.RateLimitRPS,
		RateLimitBurst:                    c.RateLimitBurst,
	}
}

func (fc *FileConfig) applyTo(c *Config) {
	c.EndpointAddrHTTP = fc.EndpointAddrHTTP
	c.DatabaseDSN = fc.DatabaseDSN
	c.LogLevel = fc.LogLevel
	c.SecretKey = fc.SecretKey
	c.SigningAlgorithm = fc.SigningAlgorithm
	c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	c.VerificationTokenValidityDuration = fc.VerificationTokenValidityDuration.Duration
	c.ResetTokenValidityDuration = fc.ResetTokenValidityDuration.Duration
	c.BcryptCost = fc.BcryptCost
	c.PasswordMinLength = fc.PasswordMinLength
	c.RequireVerifiedEmail = fc.RequireVerifiedEmail
	c.HideResetToken = fc.HideResetToken
	c.PublicBaseURL = fc.PublicBaseURL
	c.FrontendLoginURL = fc.FrontendLoginURL
	c.StaticDir = fc.StaticDir
	c.MailProvider = fc.MailProvider
	c.MailAPIKey = fc.MailAPIKey
	c.MailAPIEndpoint = fc.MailAPIEndpoint
	c.MailFrom = fc.MailFrom
	c.SMTPHost = fc.SMTPHost
	c.SMTPPort = fc.SMTPPort
	c.SMTPUser = fc.SMTPUser
	c.SMTPPassword = fc.SMTPPassword
	c.MailSendTimeout = fc.MailSendTimeout.Duration
	c.MailQueueSize = fc.MailQueueSize
	c.MailWorkers = fc.MailWorkers
	c.RedisAddr = fc.RedisAddr
	c.RedisPassword = fc.RedisPassword
	c.RedisDB = fc.RedisDB
	c.StorageBackend = fc.StorageBackend
	c.UploadDir = fc.UploadDir
	c.S3RootUser = fc.S3RootUser
	c.S3RootPassword = fc.S3RootPassword
	c.S3Bucket = fc.S3Bucket
	c.S3Region = fc.S3Region
	c.S3BaseEndpoint = fc.S3BaseEndpoint
	c.CORSAllowedOrigins = fc.CORSAllowedOrigins
	c.RateLimitRPS = fc.RateLimitRPS
	c.RateLimitBurst = fc.RateLimitBurst
}
