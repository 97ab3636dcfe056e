package main

import (
	"log"

	"github.com/google/gops/agent"
	"github.com/lintdock/lintdock/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Start gops agent for runtime debugging
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("Failed to start gops agent: %v", err)
	}
	defer agent.Close()

	cmd.SetVersionInfo(func() (string, string, string) {
		return version, commit, date
	})

	cmd.Execute()
}
