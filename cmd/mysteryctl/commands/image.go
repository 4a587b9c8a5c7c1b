package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"murdermystery/internal/images"
)

func imageCmd() *cobra.Command {
	var (
		command string
		name    string
		role    string
		setting string
	)

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Generate one test portrait through the image server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if command == "" {
				command = os.Getenv("IMAGE_SERVER_COMMAND")
			}
			if command == "" {
				command = "imageserver"
			}

			client := images.NewClient(command, nil, dbg)
			path, err := client.GeneratePortrait(cmd.Context(), images.PortraitRequest{
				Name:        name,
				Role:        role,
				Personality: "composed, with something to hide",
				Setting:     setting,
			})
			if err != nil {
				return fmt.Errorf("portrait generation failed: %w", err)
			}

			fmt.Println(okStyle.Render("portrait ok"))
			fmt.Printf("path: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&command, "server", "", "image server command (default $IMAGE_SERVER_COMMAND or 'imageserver')")
	cmd.Flags().StringVar(&name, "name", "Inspector Hale", "subject name")
	cmd.Flags().StringVar(&role, "role", "a visiting police inspector", "subject role")
	cmd.Flags().StringVar(&setting, "setting", "a remote English manor, 1920s", "scene setting")
	return cmd
}
