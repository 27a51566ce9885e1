package config

import "testing"

func TestLoadClientDefaults(t *testing.T) {
	cfg, err := LoadClient(Options{})
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("server URL %q, want default %q", cfg.ServerURL, DefaultServerURL)
	}
	if cfg.STUNServer != DefaultSTUN {
		t.Errorf("stun %q, want default %q", cfg.STUNServer, DefaultSTUN)
	}
	if cfg.VideoPort != DefaultVideoPort {
		t.Errorf("video port %d, want %d", cfg.VideoPort, DefaultVideoPort)
	}
}

func TestLoadClientFlagBeatsEnv(t *testing.T) {
	t.Setenv("PEERCAM_SERVER_URL", "ws://env.example.com/ws")

	cfg, err := LoadClient(Options{ServerURL: "ws://flag.example.com/ws"})
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.ServerURL != "ws://flag.example.com/ws" {
		t.Errorf("server URL %q, want flag value", cfg.ServerURL)
	}
}

func TestLoadClientEnvBeatsDefault(t *testing.T) {
	t.Setenv("PEERCAM_SERVER_URL", "ws://env.example.com/ws")
	t.Setenv("PEERCAM_STUN_SERVER", "stun:env.example.com:3478")

	cfg, err := LoadClient(Options{})
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.ServerURL != "ws://env.example.com/ws" {
		t.Errorf("server URL %q, want env value", cfg.ServerURL)
	}
	if cfg.STUNServer != "stun:env.example.com:3478" {
		t.Errorf("stun %q, want env value", cfg.STUNServer)
	}
}

func TestForceRelayRequiresTURN(t *testing.T) {
	if _, err := LoadClient(Options{ForceRelay: true}); err == nil {
		t.Fatal("expected error forcing relay without TURN")
	}

	cfg, err := LoadClient(Options{ForceRelay: true, TURNServer: "turn:relay.example.com"})
	if err != nil {
		t.Fatalf("LoadClient with TURN: %v", err)
	}
	if got := cfg.GetTURNServers(); len(got) != 2 {
		t.Errorf("got %d TURN URLs, want udp and tcp variants", len(got))
	}
}
