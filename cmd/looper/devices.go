package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/metric"
	"github.com/pipelined/looper/portaudio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Show the list of available audio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := portaudio.Devices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	},
}

func logMetrics(logger log.Logger) {
	for blockType, values := range metric.GetAll() {
		fields := make(log.Fields, len(values))
		for k, v := range values {
			fields[k] = v
		}
		logger.WithFields(fields).Infof("%s metrics", blockType)
	}
}
