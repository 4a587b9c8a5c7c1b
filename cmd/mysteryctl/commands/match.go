package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"murdermystery/internal/mystery"
	"murdermystery/internal/voice"
)

// sampleCast covers the casting axes the matcher scores on: explicit
// metadata, metadata-free keyword fallback, and an accented role.
var sampleCast = []mystery.Suspect{
	{
		Name:        "Lord Edmund Hartley",
		Role:        "the victim's business partner",
		Personality: "imperious and quick to take offence",
		Gender:      "male",
		Age:         "old",
		Nationality: "british",
	},
	{
		Name:        "Miss Clara Winslow",
		Role:        "a young maid in the household",
		Personality: "nervous, eager to please",
	},
	{
		Name:        "Frank O'Donnell",
		Role:        "a retired detective from Dublin",
		Personality: "weary and sardonic",
		Gender:      "male",
		Nationality: "irish",
	},
}

func matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match",
		Short: "Run a sample cast through voice matching and show the scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !voices.Available() {
				return fmt.Errorf("ELEVENLABS_API_KEY is not set")
			}

			catalog, err := voices.Voices(cmd.Context(), false)
			if err != nil {
				return err
			}
			catalog = voice.FilterForCasting(catalog)
			if len(catalog) == 0 {
				return fmt.Errorf("no castable voices in the catalog")
			}

			fmt.Println(headerStyle.Render(fmt.Sprintf("%-24s %-18s %-20s %s", "SUSPECT", "WANTS", "CAST VOICE", "SCORE")))
			used := make(map[string]bool)
			for _, s := range sampleCast {
				c := voice.ExtractCharacteristics(s)
				wants := fmt.Sprintf("%s/%s/%s", orDash(c.Gender), orDash(c.Age), orDash(c.Accent))

				v, score := voice.Match(s, catalog, used)
				if v == nil {
					fmt.Printf("%-24s %-18s %s\n", s.Name, wants, warnStyle.Render("no match"))
					continue
				}
				used[v.VoiceID] = true
				fmt.Printf("%-24s %-18s %-20s %d\n", s.Name, wants, v.Name, score)
			}
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
