package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
)

// Config controls the sidecar monitoring server. It listens on its own port
// so operational traffic never shares a listener with signaling.
type Config struct {
	Port         int    `fig:"port" default:"9090"`
	MetricsOn    bool   `fig:"metrics" default:"true"`
	ProfilingOn  bool   `fig:"pprof"`
	URLPrefix    string `fig:"url_prefix"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes Prometheus metrics and, optionally, pprof handlers.
type Server struct {
	conf Config
	tag  string
	log  *logging.Logger
	srv  *http.Server
}

// New creates the monitoring service. The tag param labels log lines with the
// owning binary. Metrics are served from reg, not the global registry, so
// each process decides exactly what it exports.
func New(conf Config, tag string, reg *prometheus.Registry, log *logging.Logger) *Server {
	h := http.NewServeMux()

	if conf.ProfilingOn {
		prefix := conf.URLPrefix + "/debug/pprof"
		h.HandleFunc(prefix+"/", pprof.Index)
		h.HandleFunc(prefix+"/cmdline", pprof.Cmdline)
		h.HandleFunc(prefix+"/profile", pprof.Profile)
		h.HandleFunc(prefix+"/symbol", pprof.Symbol)
		h.HandleFunc(prefix+"/trace", pprof.Trace)
		h.Handle(prefix+"/allocs", pprof.Handler("allocs"))
		h.Handle(prefix+"/block", pprof.Handler("block"))
		h.Handle(prefix+"/goroutine", pprof.Handler("goroutine"))
		h.Handle(prefix+"/heap", pprof.Handler("heap"))
		h.Handle(prefix+"/mutex", pprof.Handler("mutex"))
	}

	if conf.MetricsOn {
		h.Handle(conf.URLPrefix+"/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return &Server{
		conf: conf,
		tag:  tag,
		log:  log,
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", conf.Port),
			Handler:      h,
			ReadTimeout:  conf.ReadTimeout,
			WriteTimeout: conf.WriteTimeout,
		},
	}
}

func (s *Server) Run() {
	s.log.Info().Str("service", s.tag).Str("addr", s.srv.Addr).Msg("monitoring server started")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error().Err(err).Msg("monitoring server stopped")
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Str("service", s.tag).Msg("monitoring server shutting down")
	return s.srv.Shutdown(ctx)
}
