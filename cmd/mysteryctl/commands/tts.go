package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"murdermystery/internal/tts"
)

func ttsCmd() *cobra.Command {
	var (
		text    string
		voiceID string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "tts",
		Short: "Synthesize a sample line and report word timing coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := tts.NewService(tts.Config{
				APIKey:     os.Getenv("ELEVENLABS_API_KEY"),
				NarratorID: os.Getenv("NARRATOR_VOICE_ID"),
				AudioDir:   outDir,
			}, dbg)
			if !svc.Available() {
				return fmt.Errorf("ELEVENLABS_API_KEY is not set")
			}

			result, err := svc.Speak(cmd.Context(), text, voiceID)
			if err != nil {
				return err
			}

			fmt.Println(okStyle.Render("synthesis ok"))
			fmt.Printf("audio: %s\n", result.AudioPath)
			if len(result.Words) == 0 {
				fmt.Println(warnStyle.Render("no word timestamps; timestamped endpoint unavailable, captions will use estimates"))
				return nil
			}

			last := result.Words[len(result.Words)-1]
			fmt.Printf("words: %d, duration: %.2fs\n", len(result.Words), last.End)
			for _, w := range result.Words {
				fmt.Printf("  %6.2f-%6.2f  %s\n", w.Start, w.End, w.Word)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "The body was discovered in the library, just before midnight.", "line to synthesize")
	cmd.Flags().StringVar(&voiceID, "voice", "", "voice ID (defaults to the narrator)")
	cmd.Flags().StringVar(&outDir, "out", "", "audio output directory")
	return cmd
}
