package main

import (
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/cli"
)

func main() {
	cli.Execute()
}
