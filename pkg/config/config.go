package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Emisor EmisorConfig
	PAC    PACConfig
	Crypto CryptoConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// EmisorConfig datos fiscales del emisor y referencias a su CSD
// (Certificado de Sello Digital). La contraseña de la llave se guarda
// cifrada (pkg/cifrado); nunca se acepta en claro por request.
type EmisorConfig struct {
	RFC            string // RFC del emisor
	Nombre         string // Razón social tal como aparece en el CSF
	RegimenFiscal  string // Código c_RegimenFiscal (ej. 601)
	CodigoPostal   string // Lugar de expedición (CP registrado)
	CertPath       string // Ruta al certificado .cer/.pem o .p12
	KeyPath        string // Ruta a la llave privada .pem (vacío si CertPath es .p12)
	KeyPasswordEnc string // Contraseña de la llave, cifrada con pkg/cifrado
}

// PACConfig configuración del proveedor autorizado de certificación.
// Modo "hosted": el PAC construye y sella el CFDI desde JSON.
// Modo "sellado": se envía el XML ya sellado localmente con el CSD propio.
type PACConfig struct {
	BaseURL  string
	Usuario  string
	Password string
	Modo     string        // "hosted" | "sellado"
	Timeout  time.Duration // timeout por llamada de timbrado
}

// CryptoConfig secreto maestro del que se deriva la llave que protege
// la contraseña del CSD en reposo.
type CryptoConfig struct {
	SecretoMaestro string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	userInfo := url.UserPassword(c.User, c.Password)
	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT para la API de facturación.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, PAC_URL, EMISOR_RFC, etc.
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
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "arrendamiento-facturacion"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "arrendamiento"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "arrendamiento-facturacion"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Emisor: EmisorConfig{
			RFC:            getString(v, "EMISOR_RFC", ""),
			Nombre:         getString(v, "EMISOR_NOMBRE", ""),
			RegimenFiscal:  getString(v, "EMISOR_REGIMEN", "601"),
			CodigoPostal:   getString(v, "EMISOR_CP", ""),
			CertPath:       getString(v, "CSD_CERT_PATH", ""),
			KeyPath:        getString(v, "CSD_KEY_PATH", ""),
			KeyPasswordEnc: getString(v, "CSD_KEY_PASSWORD_ENC", ""),
		},
		PAC: PACConfig{
			BaseURL:  getString(v, "PAC_URL", ""),
			Usuario:  getString(v, "PAC_USUARIO", ""),
			Password: getString(v, "PAC_PASSWORD", ""),
			Modo:     getString(v, "PAC_MODO", "sellado"),
			Timeout:  time.Duration(getInt(v, "PAC_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Crypto: CryptoConfig{
			SecretoMaestro: getString(v, "CRYPTO_SECRET", ""),
		},
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
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
