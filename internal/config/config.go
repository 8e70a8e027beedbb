package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env              string // application environment (e.g. "dev", "prod")
    Port             string // HTTP port to listen on
    Origin           string // allowed CORS origin for the frontend
    DBUser           string // database username
    DBPass           string // database password (optional)
    DBHost           string // database host address
    DBPort           string // database port number
    DBName           string // database name
    AccessSecret     string // secret used to sign access tokens
    RefreshSecret    string // secret used to sign refresh tokens
    ActivationSecret string // secret used to sign account activation tokens
    AccessTTLMin     int    // access token time‑to‑live in minutes
    RefreshTTLDays   int    // refresh token time‑to‑live in days
    ActivationTTLMin int    // activation token time‑to‑live in minutes
    BcryptCost       int    // bcrypt cost for password hashing
    SMTPHost         string // SMTP server host for outgoing mail
    SMTPPort         int    // SMTP server port
    SMTPUser         string // SMTP username (empty disables authentication)
    SMTPPassword     string // SMTP password
    SMTPFrom         string // From address on outgoing mail
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Mail settings are
// optional so that local development works without an SMTP server; the
// mailer degrades to logging only when SMTPHost is empty.
func Load() Config {
    return Config{
        Env:              must("APP_ENV"),  // environment (dev/test/prod)
        Port:             must("APP_PORT"), // port to bind the HTTP server
        Origin:           os.Getenv("ORIGIN"),
        DBUser:           must("DB_USER"),
        DBPass:           os.Getenv("DB_PASS"), // empty allowed
        DBHost:           must("DB_HOST"),
        DBPort:           must("DB_PORT"),
        DBName:           must("DB_NAME"),
        AccessSecret:     must("ACCESS_TOKEN_SECRET"),
        RefreshSecret:    must("REFRESH_TOKEN_SECRET"),
        ActivationSecret: must("ACTIVATION_SECRET"),
        AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:   mustInt("REFRESH_TOKEN_TTL_DAYS"),
        ActivationTTLMin: mustInt("ACTIVATION_TTL_MIN"),
        BcryptCost:       mustInt("BCRYPT_COST"),
        SMTPHost:         os.Getenv("SMTP_HOST"),
        SMTPPort:         atoi(getenv("SMTP_PORT", "587")),
        SMTPUser:         os.Getenv("SMTP_USER"),
        SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
        SMTPFrom:         getenv("SMTP_FROM", "no-reply@localhost"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// getenv returns the value of an environment variable or a default when unset.
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func atoi(s string) int {
    i, _ := strconv.Atoi(s)
    return i
}
