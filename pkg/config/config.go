package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	Store  StoreConfig
	Agent  AgentConfig
	Notify NotifyConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
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

// StoreConfig configuración del almacén de planillas del servidor.
// DataDir contiene un archivo JSON por planilla; SignatureDir guarda las firmas como PNG.
type StoreConfig struct {
	DataDir         string
	SignatureDir    string
	RegistrySheetID string // planilla central con la pestaña de obras
}

// AgentConfig configuración del agente de sincronización (cliente offline-first).
type AgentConfig struct {
	APIURL         string        // URL base del endpoint /exec
	DataDir        string        // almacén local durable
	RequestTimeout time.Duration // límite por petición remota
	ProbeInterval  time.Duration // intervalo del monitor de conexión
	ProbeWindow    int           // muestras de la ventana deslizante
	UserEmail      string        // email para iniciar sesión si no hay sesión guardada
	Obra           string        // obra para iniciar sesión si no hay sesión guardada
}

// NotifyConfig configuración del notificador de solicitudes de acceso.
type NotifyConfig struct {
	AdminEmail string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, HTTP_PORT, STORE_DATA_DIR, etc.
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
			Name: getString(v, "APP_NAME", "epi-manager"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Store: StoreConfig{
			DataDir:         getString(v, "STORE_DATA_DIR", "./data/sheets"),
			SignatureDir:    getString(v, "STORE_SIGNATURE_DIR", "./data/signatures"),
			RegistrySheetID: getString(v, "STORE_REGISTRY_SHEET_ID", "registro-central"),
		},
		Agent: AgentConfig{
			APIURL:         getString(v, "AGENT_API_URL", "http://localhost:8080/exec"),
			DataDir:        getString(v, "AGENT_DATA_DIR", "./data/agent"),
			RequestTimeout: getDuration(v, "AGENT_REQUEST_TIMEOUT", 10*time.Second),
			ProbeInterval:  getDuration(v, "AGENT_PROBE_INTERVAL", 3*time.Second),
			ProbeWindow:    getInt(v, "AGENT_PROBE_WINDOW", 5),
			UserEmail:      getString(v, "AGENT_USER_EMAIL", ""),
			Obra:           getString(v, "AGENT_OBRA", ""),
		},
		Notify: NotifyConfig{
			AdminEmail: getString(v, "NOTIFY_ADMIN_EMAIL", ""),
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

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		if d := v.GetDuration(key); d > 0 {
			return d
		}
	}
	return def
}
