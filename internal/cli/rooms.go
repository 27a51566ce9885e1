package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/config"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/ui"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List the signaling server's active rooms",
	Long: `Query the signaling server's diagnostic endpoint and list active rooms
with their member counts.

Examples:
  peercam rooms
  peercam rooms --server ws://signal.example.com/ws`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRooms()
	},
}

func init() {
	roomsCmd.Flags().StringVar(&flagServerURL, "server", "", "signaling server websocket URL")
	rootCmd.AddCommand(roomsCmd)
}

func runRooms() error {
	cfg, err := config.LoadClient(config.Options{ServerURL: flagServerURL})
	if err != nil {
		return err
	}

	endpoint, err := roomsEndpoint(cfg.ServerURL)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("query server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var rooms map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	ui.RenderRooms(rooms)
	return nil
}

// roomsEndpoint maps the websocket signaling URL to the HTTP /rooms endpoint
// on the same host.
func roomsEndpoint(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/ws") + "/rooms"
	u.RawQuery = ""
	return u.String(), nil
}
