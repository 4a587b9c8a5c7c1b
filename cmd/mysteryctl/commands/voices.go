package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"murdermystery/internal/voice"
)

func voicesCmd() *cobra.Command {
	var (
		asJSON      bool
		castingOnly bool
		outFile     string
	)

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the vendor voice catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !voices.Available() {
				return fmt.Errorf("ELEVENLABS_API_KEY is not set")
			}

			catalog, err := voices.Voices(cmd.Context(), true)
			if err != nil {
				return err
			}
			if castingOnly {
				catalog = voice.FilterForCasting(catalog)
			}

			if outFile != "" {
				data, err := json.MarshalIndent(catalog, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outFile, data, 0o644); err != nil {
					return err
				}
				fmt.Println(okStyle.Render("wrote " + outFile))
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog)
			}

			fmt.Println(headerStyle.Render(fmt.Sprintf("%-24s %-22s %-8s %-12s %s", "NAME", "VOICE ID", "GENDER", "AGE", "ACCENT")))
			for _, v := range catalog {
				fmt.Printf("%-24s %s %-8s %-12s %s\n",
					v.Name, dimStyle.Render(fmt.Sprintf("%-22s", v.VoiceID)), v.Gender, v.Age, v.Accent)
			}
			fmt.Println(dimStyle.Render(fmt.Sprintf("%d voices", len(catalog))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "dump the catalog as JSON")
	cmd.Flags().BoolVar(&castingOnly, "casting", false, "only voices usable for suspect casting")
	cmd.Flags().StringVar(&outFile, "out", "", "also write the catalog as JSON to a file")
	return cmd
}
