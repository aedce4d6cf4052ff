package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For timeouts

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the backend configuration
type Config struct {
	AppPort    string // Application port
	DBDriver   string // Database driver: mysql, postgres or sqlite
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name, or file path for sqlite
	JWTSecret  string // JWT secret key for locally issued tokens
	RedisAddr  string // Redis server address, caching is off when empty
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment
	LogFormat  string // text or json

	AuthMode                string // firebase or jwt
	FirebaseProjectID       string // Firebase project id
	FirebaseCredentialsJSON string // Service account JSON, empty for application default credentials

	StripeSecretKey string // Stripe secret key, an in-memory gateway is used when empty
	ClientURL       string // Storefront origin used for checkout return URLs
	Currency        string // Checkout currency

	CORSOrigins []string // Allowed browser origins

	S3Bucket    string // Bucket for server-side image uploads
	S3Region    string // Bucket region
	S3Endpoint  string // Custom endpoint for S3-compatible stores
	S3AccessKey string // Static access key, falls back to the default chain
	S3SecretKey string // Static secret key
	S3BaseURL   string // Public URL prefix for uploaded objects
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),       // Application port
		DBDriver:   getEnv("DB_DRIVER", "mysql"),     // Database driver
		DBUser:     os.Getenv("DB_USER"),             // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),         // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),   // Database host
		DBPort:     os.Getenv("DB_PORT"),             // Database port
		DBName:     getEnv("DB_NAME", "bookcourier"), // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),          // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),          // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),          // Redis password
		RedisDB:    redisDB,                          // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true",   // Is production environment
		LogFormat:  getEnv("LOG_FORMAT", "text"),     // Log formatter

		AuthMode:                getEnv("AUTH_MODE", "firebase"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		ClientURL:       getEnv("CLIENT_URL", "http://localhost:5173"),
		Currency:        strings.ToLower(getEnv("CURRENCY", "usd")),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3BaseURL:   os.Getenv("S3_BASE_URL"),
	}
}

// ClientConfig holds the settings of the courierctl front end
type ClientConfig struct {
	APIURL           string        // Backend base URL
	Identity         string        // firebase or dev
	FirebaseAPIKey   string        // Web API key for the Identity Toolkit
	CloudinaryCloud  string        // Cloudinary cloud name
	CloudinaryPreset string        // Unsigned upload preset
	SessionFile      string        // Where the signed-in session is kept
	Timeout          time.Duration // Outbound request timeout
}

// LoadClientConfig loads the courierctl configuration from environment variables
func LoadClientConfig() *ClientConfig {
	_ = godotenv.Load()
	timeout, err := time.ParseDuration(getEnv("COURIER_TIMEOUT", "15s"))
	if err != nil {
		timeout = 15 * time.Second
	}
	return &ClientConfig{
		APIURL:           strings.TrimRight(getEnv("COURIER_API_URL", "http://localhost:8080"), "/"),
		Identity:         getEnv("COURIER_IDENTITY", "firebase"),
		FirebaseAPIKey:   os.Getenv("FIREBASE_API_KEY"),
		CloudinaryCloud:  os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		SessionFile:      getEnv("COURIER_SESSION_FILE", defaultSessionFile()),
		Timeout:          timeout,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".courierctl.yaml"
	}
	return home + string(os.PathSeparator) + ".courierctl.yaml"
}
