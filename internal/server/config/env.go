package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envSetter applies one environment variable to Config.
type envSetter func(c *Config, value string) error

func setString(dst func(c *Config) *string) envSetter {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func setInt(dst func(c *Config) *int) envSetter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func setFloat(dst func(c *Config) *float64) envSetter {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func setBool(dst func(c *Config) *bool) envSetter {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

// setMinutes reads an integer number of minutes.
func setMinutes(dst func(c *Config) *time.Duration) envSetter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = time.Duration(n) * time.Minute
		return nil
	}
}

func setDuration(dst func(c *Config) *time.Duration) envSetter {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

// envVars lists the recognized environment variables. Names follow the
// deployment conventions the service was first run with (SECRET_KEY,
// ALGORITHM, ACCESS_TOKEN_EXPIRE_MINUTES, SMTP_*).
var envVars = map[string]envSetter{
	"HTTP_ADDR":    setString(func(c *Config) *string { return &c.EndpointAddrHTTP }),
	"DATABASE_URL": setString(func(c *Config) *string { return &c.DatabaseDSN }),
	"LOG_LEVEL":    setString(func(c *Config) *string { return &c.LogLevel }),

	"SECRET_KEY":                  setString(func(c *Config) *string { return &c.SecretKey }),
	"ALGORITHM":                   setString(func(c *Config) *string { return &c.SigningAlgorithm }),
	"ACCESS_TOKEN_EXPIRE_MINUTES": setMinutes(func(c *Config) *time.Duration { return &c.AccessTokenValidityDuration }),
	"VERIFICATION_TOKEN_TTL":      setDuration(func(c *Config) *time.Duration { return &c.VerificationTokenValidityDuration }),
	"RESET_TOKEN_TTL":             setDuration(func(c *Config) *time.Duration { return &c.ResetTokenValidityDuration }),
	"BCRYPT_COST":                 setInt(func(c *Config) *int { return &c.BcryptCost }),
	"PASSWORD_MIN_LENGTH":         setInt(func(c *Config) *int { return &c.PasswordMinLength }),
	"REQUIRE_VERIFIED_EMAIL":      setBool(func(c *Config) *bool { return &c.RequireVerifiedEmail }),
	"HIDE_RESET_TOKEN":            setBool(func(c *Config) *bool { return &c.HideResetToken }),
	"PUBLIC_BASE_URL":             setString(func(c *Config) *string { return &c.PublicBaseURL }),
	"FRONTEND_LOGIN_URL":          setString(func(c *Config) *string { return &c.FrontendLoginURL }),
	"STATIC_DIR":                  setString(func(c *Config) *string { return &c.StaticDir }),
	"MAIL_PROVIDER":               setString(func(c *Config) *string { return &c.MailProvider }),
	"MAIL_API_KEY":                setString(func(c *Config) *string { return &c.MailAPIKey }),
	"MAIL_API_ENDPOINT":           setString(func(c *Config) *string { return &c.MailAPIEndpoint }),
	"FROM_EMAIL":                  setString(func(c *Config) *string { return &c.MailFrom }),
	"SMTP_HOST":                   setString(func(c *Config) *string { return &c.SMTPHost }),
	"SMTP_PORT":                   setInt(func(c *Config) *int { return &c.SMTPPort }),
	"SMTP_USER":                   setString(func(c *Config) *string { return &c.SMTPUser }),
	"SMTP_PASS":                   setString(func(c *Config) *string { return &c.SMTPPassword }),
	"MAIL_SEND_TIMEOUT":           setDuration(func(c *Config) *time.Duration { return &c.MailSendTimeout }),
	"MAIL_QUEUE_SIZE":             setInt(func(c *Config) *int { return &c.MailQueueSize }),
	"MAIL_WORKERS":                setInt(func(c *Config) *int { return &c.MailWorkers }),
	"REDIS_ADDR":                  setString(func(c *Config) *string { return &c.RedisAddr }),
	"REDIS_PASSWORD":              setString(func(c *Config) *string { return &c.RedisPassword }),
	"REDIS_DB":                    setInt(func(c *Config) *int { return &c.RedisDB }),
	"STORAGE_BACKEND":             setString(func(c *Config) *string { return &c.StorageBackend }),
	"UPLOAD_DIR":                  setString(func(c *Config) *string { return &c.UploadDir }),
	"S3_ROOT_USER":                setString(func(c *Config) *string { return &c.S3RootUser }),
	"S3_ROOT_PASSWORD":            setString(func(c *Config) *string { return &c.S3RootPassword }),
	"S3_BUCKET":                   setString(func(c *Config) *string { return &c.S3Bucket }),
	"S3_REGION":                   setString(func(c *Config) *string { return &c.S3Region }),
	"S3_BASE_ENDPOINT":            setString(func(c *Config) *string { return &c.S3BaseEndpoint }),
	"RATE_LIMIT_RPS":              setFloat(func(c *Config) *float64 { return &c.RateLimitRPS }),
	"RATE_LIMIT_BURST":            setInt(func(c *Config) *int { return &c.RateLimitBurst }),
	"CORS_ALLOWED_ORIGINS": func(c *Config, v string) error {
		c.CORSAllowedOrigins = splitList(v)
		return nil
	},
}

// parseEnv overlays Config with recognized environment variables. Unset
// variables leave the current value untouched; malformed values panic.
func parseEnv(config *Config) {
	for name, set := range envVars {
		value, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if err := set(config, value); err != nil {
			panic(fmt.Errorf("env %s: %w", name, err))
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
