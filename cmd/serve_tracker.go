package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/cmd/server"
)

// serveTrackerCmd represents the serve tracker command
var serveTrackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Serve the asset tracking instance",
	Run:   server.RunServeTracker(c),
}

func init() {
	serveCmd.AddCommand(serveTrackerCmd)
}
