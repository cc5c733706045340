package config

// ServerConfig defines the HTTP API listener.
type ServerConfig struct {
	// Addr is the listen address of the scheduling API.
	Addr string `json:"addr"`
	// AllowedOrigins configures CORS for browser clients.
	AllowedOrigins []string `json:"allowed_origins"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}
