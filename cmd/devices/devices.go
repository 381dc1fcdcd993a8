package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DrewThomasson/sound-monitor/internal/myaudio"
)

// Command creates a command that lists available audio capture devices.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := myaudio.ListAudioSources()
			if err != nil {
				return err
			}

			fmt.Println("Available Capture Sources:")
			for _, device := range devices {
				fmt.Printf("  %d: %s (%s)\n", device.Index, device.Name, device.ID)
			}
			return nil
		},
	}
}
