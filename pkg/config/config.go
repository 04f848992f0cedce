package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Sentry    SentryConfig
	Mail      MailConfig
	Queue     QueueConfig
	Satellite SatelliteConfig
	Provider  ProviderConfig
	Company   CompanyConfig
	Invoicing InvoicingConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env         string `validate:"required"` // development, staging, production
	Name        string `validate:"required"`
	LogLevel    string `validate:"oneof=trace debug info warn error"`
	DocsEnabled bool
	DocsFile    string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int `validate:"min=1,max=65535"`
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SentryConfig rastreo de errores. DSN vacío lo desactiva.
type SentryConfig struct {
	DSN string `validate:"omitempty,url"`
}

// MailConfig conexión SMTP para las notificaciones por correo.
// Server vacío desactiva el envío real (los correos solo se registran en el log).
type MailConfig struct {
	Server           string
	Port             int `validate:"min=1,max=65535"`
	Username         string
	Password         string
	UseTLS           bool
	UseSSL           bool
	Debug            bool
	DefaultSender    string        `validate:"omitempty,email"`
	DefaultRecipient string        `validate:"omitempty,email"`
	SendTimeout      time.Duration `validate:"gt=0"`
}

// Enabled indica si hay servidor SMTP configurado.
func (c MailConfig) Enabled() bool { return c.Server != "" }

// QueueConfig cola asynq sobre Redis. Addr vacío usa una goroutine desacoplada por envío.
type QueueConfig struct {
	RedisAddr     string `validate:"omitempty,hostname_port"`
	RedisPassword string
	RedisDB       int `validate:"min=0"`
}

// Enabled indica si los correos se encolan en Redis.
func (c QueueConfig) Enabled() bool { return c.RedisAddr != "" }

// SatelliteConfig secreto compartido para autenticar llamadas entrantes.
// Password puede ser texto plano o un hash bcrypt; vacío desactiva la verificación.
type SatelliteConfig struct {
	Password string
}

// ProviderConfig selección y parámetros del adaptador del proveedor externo.
type ProviderConfig struct {
	Name          string `validate:"oneof=sandbox rest"`
	BaseURL       string `validate:"required_if=Name rest"`
	JWTSecret     string `validate:"required_if=Name rest"`
	JWTIssuer     string
	JWTExpMinutes int           `validate:"min=1"`
	Timeout       time.Duration `validate:"gt=0"`
}

// CompanyConfig identidad fiscal del emisor que reporta el adaptador sandbox.
type CompanyConfig struct {
	FullName  string
	TaxID     string
	TaxIDType string
}

// InvoicingConfig comportamiento del endpoint de inicio de procesos.
type InvoicingConfig struct {
	HealthTimeout             time.Duration `validate:"gt=0"`
	NotificationFailurePolicy string        `validate:"oneof=fatal lenient"`
	EchoResult                bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, HTTP_PORT, MAIL_SERVER, PROVIDER_NAME, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:         getString(v, "APP_ENV", "development"),
			Name:        getString(v, "APP_NAME", "shopper-invoicing"),
			LogLevel:    strings.ToLower(getString(v, "LOG_LEVEL", "info")),
			DocsEnabled: getBool(v, "DOCS_ENABLED", true),
			DocsFile:    getString(v, "DOCS_FILE", "./docs/swagger.json"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Sentry: SentryConfig{
			DSN: getString(v, "SENTRY_DSN", ""),
		},
		Mail: MailConfig{
			Server:           getString(v, "MAIL_SERVER", ""),
			Port:             getInt(v, "MAIL_PORT", 25),
			Username:         getString(v, "MAIL_USERNAME", ""),
			Password:         getString(v, "MAIL_PASSWORD", ""),
			UseTLS:           getBool(v, "MAIL_USE_TLS", false),
			UseSSL:           getBool(v, "MAIL_USE_SSL", false),
			Debug:            getBool(v, "MAIL_DEBUG", false),
			DefaultSender:    getString(v, "MAIL_DEFAULT_SENDER", ""),
			DefaultRecipient: getString(v, "MAIL_DEFAULT_RECIPIENT", ""),
			SendTimeout:      getDuration(v, "MAIL_SEND_TIMEOUT", 30*time.Second),
		},
		Queue: QueueConfig{
			RedisAddr:     getString(v, "QUEUE_REDIS_ADDR", ""),
			RedisPassword: getString(v, "QUEUE_REDIS_PASSWORD", ""),
			RedisDB:       getInt(v, "QUEUE_REDIS_DB", 0),
		},
		Satellite: SatelliteConfig{
			Password: getString(v, "SATELLITE_PASSWORD", ""),
		},
		Provider: ProviderConfig{
			Name:          strings.ToLower(getString(v, "PROVIDER_NAME", "sandbox")),
			BaseURL:       getString(v, "PROVIDER_BASE_URL", ""),
			JWTSecret:     getString(v, "PROVIDER_JWT_SECRET", ""),
			JWTIssuer:     getString(v, "PROVIDER_JWT_ISSUER", "shopper-invoicing"),
			JWTExpMinutes: getInt(v, "PROVIDER_JWT_EXPIRATION_MINUTES", 5),
			Timeout:       getDuration(v, "PROVIDER_TIMEOUT", 30*time.Second),
		},
		Company: CompanyConfig{
			FullName:  getString(v, "COMPANY_FULL_NAME", "Shopper Invoicing Sandbox"),
			TaxID:     getString(v, "COMPANY_TAX_ID", "EKU9003173C9"),
			TaxIDType: getString(v, "COMPANY_TAX_ID_TYPE", "rfc"),
		},
		Invoicing: InvoicingConfig{
			HealthTimeout:             getDuration(v, "HEALTH_TIMEOUT", 5*time.Second),
			NotificationFailurePolicy: strings.ToLower(getString(v, "NOTIFICATION_FAILURE_POLICY", "fatal")),
			EchoResult:                getBool(v, "INVOICING_ECHO_RESULT", false),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Mail.UseTLS && cfg.Mail.UseSSL {
		return nil, fmt.Errorf("config: MAIL_USE_TLS y MAIL_USE_SSL son excluyentes")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getBool acepta true/false, 1/0 y también "True" como lo escriben algunos despliegues.
func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

// getDuration acepta duraciones de Go ("30s", "2m") o segundos enteros ("30").
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
