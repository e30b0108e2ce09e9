// Command iotmarket boots the IoT marketplace host and serves its REST API.
//
// Usage:
//
//	iotmarket serve --config ./config.yml
//	iotmarket config
//	iotmarket version
package main

import (
	"os"

	"github.com/kbukum/iotmarket/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
