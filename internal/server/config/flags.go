package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/spf13/pflag"
)

// parseFlags populates Config fields from command-line flags.
//
// Frequently used flags keep a short form:
//
//	-a, --address string        HTTP bind address (e.g. ":8000")
//	-d, --database-dsn string   PostgreSQL DSN
//	-s, --secret-key string     bearer token HMAC key
//	-t, --token-ttl int         bearer token validity, minutes
//	-u, --s3-user string        S3 root user
//	-p, --s3-password string    S3 root password
//	-b, --s3-bucket string      S3 bucket name
//	-g, --s3-region string      S3 region
//	-e, --s3-endpoint string    S3 base endpoint
//
// The rest are long-only; see the flag set below. os.Args is first filtered
// down to the flags defined here (flagx.FilterArgs), so -c/--config and
// unrelated arguments do not break parsing.
//
// Panics on malformed values.
func parseFlags(config *Config) {
	fs := pflag.NewFlagSet("main", pflag.ContinueOnError)

	fs.StringVarP(&config.EndpointAddrHTTP, "address", "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVarP(&config.DatabaseDSN, "database-dsn", "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level (debug, info, warn, error)")

	fs.StringVarP(&config.SecretKey, "secret-key", "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SigningAlgorithm, "signing-algorithm", config.SigningAlgorithm, "HS256, HS384 or HS512")
	accessTokenTTL := fs.IntP("token-ttl", "t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.DurationVar(&config.VerificationTokenValidityDuration, "verification-token-ttl", config.VerificationTokenValidityDuration, "email verification link validity")
	fs.DurationVar(&config.ResetTokenValidityDuration, "reset-token-ttl", config.ResetTokenValidityDuration, "password reset link validity")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.PasswordMinLength, "password-min-length", config.PasswordMinLength, "minimum password length")
	fs.BoolVar(&config.RequireVerifiedEmail, "require-verified-email", config.RequireVerifiedEmail, "refuse login until the email is verified")
	fs.BoolVar(&config.HideResetToken, "hide-reset-token", config.HideResetToken, "omit the reset token from the forget-password response")

	fs.StringVar(&config.PublicBaseURL, "public-base-url", config.PublicBaseURL, "base URL used in emailed links")
	fs.StringVar(&config.FrontendLoginURL, "frontend-login-url", config.FrontendLoginURL, "login page linked after verification")
	fs.StringVar(&config.StaticDir, "static-dir", config.StaticDir, "directory served under /static/")

	fs.StringVar(&config.MailProvider, "mail-provider", config.MailProvider, "api, smtp or log")
	fs.StringVar(&config.MailAPIKey, "mail-api-key", config.MailAPIKey, "mail API key")
	fs.StringVar(&config.MailAPIEndpoint, "mail-api-endpoint", config.MailAPIEndpoint, "mail API endpoint")
	fs.StringVar(&config.MailFrom, "mail-from", config.MailFrom, "sender address")
	fs.StringVar(&config.SMTPHost, "smtp-host", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "smtp-port", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "smtp-user", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "smtp-password", config.SMTPPassword, "SMTP password")

	fs.StringVar(&config.RedisAddr, "redis-addr", config.RedisAddr, "redis address for token revocation (empty: in memory)")

	fs.StringVar(&config.StorageBackend, "storage-backend", config.StorageBackend, "local or s3")
	fs.StringVar(&config.UploadDir, "upload-dir", config.UploadDir, "local upload directory")
	fs.StringVarP(&config.S3RootUser, "s3-user", "u", config.S3RootUser, "S3 root user")
	fs.StringVarP(&config.S3RootPassword, "s3-password", "p", config.S3RootPassword, "S3 root password")
	fs.StringVarP(&config.S3Bucket, "s3-bucket", "b", config.S3Bucket, "S3 root bucket")
	fs.StringVarP(&config.S3Region, "s3-region", "g", config.S3Region, "S3 root region")
	fs.StringVarP(&config.S3BaseEndpoint, "s3-endpoint", "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringSliceVar(&config.CORSAllowedOrigins, "cors-origins", config.CORSAllowedOrigins, "allowed CORS origins")

	values, switches := flagNames(fs)
	args := flagx.FilterArgs(os.Args[1:], values, switches...)

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if fs.Changed("token-ttl") {
		config.AccessTokenValidityDuration = time.Duration(*accessTokenTTL) * time.Minute
	}
}

// flagNames lists every spelling of the defined flags, split into flags that
// take a value and boolean switches.
func flagNames(fs *pflag.FlagSet) (values []string, switches []string) {
	fs.VisitAll(func(f *pflag.Flag) {
		names := []string{"--" + f.Name}
		if f.Shorthand != "" {
			names = append(names, "-"+f.Shorthand)
		}
		if f.Value.Type() == "bool" {
			switches = append(switches, names...)
			return
		}
		values = append(values, names...)
	})
	return values, switches
}
