package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the peercam version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("peercam %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
