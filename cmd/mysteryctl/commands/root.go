// Package commands implements the mysteryctl vendor diagnostics CLI:
// quick checks against the voice catalog, speech synthesis, voice
// casting, and the image server without starting a full game.
package commands

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"murdermystery/internal/debug"
	"murdermystery/internal/voice"
)

var (
	verbose bool
	dbg     *debug.Logger
	voices  *voice.Client
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

func Execute() error {
	root := &cobra.Command{
		Use:           "mysteryctl",
		Short:         "Diagnostics for the murder mystery vendor integrations",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			dbg = debug.NewLogger(verbose)
			voices = voice.NewClient(os.Getenv("ELEVENLABS_API_KEY"), dbg)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write debug output to the log file")

	root.AddCommand(voicesCmd(), ttsCmd(), matchCmd(), imageCmd())
	return root.Execute()
}
