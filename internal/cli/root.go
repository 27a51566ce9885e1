package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/ui"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "peercam",
	Short:   "Stream a camera to a remote peer and watch it with live object detection",
	Long: `Peercam connects two devices directly over WebRTC: one publishes its
camera, the other watches the stream and runs object detection on sampled
frames. A lightweight signaling server pairs the two via a short room code;
all media flows peer to peer.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Interrupt handling belongs to the long-running commands themselves.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
