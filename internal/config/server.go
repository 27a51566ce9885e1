package config

import (
	"errors"
	"os"

	"github.com/kkyr/fig"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/monitoring"
)

// EnvPrefix namespaces environment overrides, e.g. PEERCAM_PORT.
const EnvPrefix = "PEERCAM"

// Server is the signaling server configuration, loaded from config.yaml with
// environment overrides.
type Server struct {
	Port  int  `fig:"port" default:"8080"`
	Debug bool `fig:"debug"`

	Monitoring monitoring.Config `fig:"monitoring"`
}

// LoadServer reads the server configuration. The path param points at a
// directory holding config.yaml; when empty, the working directory and
// ./configs are searched. Missing files fall back to defaults plus env.
func LoadServer(path string) (*Server, error) {
	cfg := &Server{}
	dirs := []string{path}
	if path == "" {
		dirs = []string{".", "configs"}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, home+"/.peercam")
		}
	}
	err := fig.Load(cfg, fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if err != nil {
		// No config file is fine; env and defaults still apply.
		if errors.Is(err, fig.ErrFileNotFound) {
			err = fig.Load(cfg, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
		}
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
