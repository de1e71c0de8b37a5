package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"reelfit/internal/model"
	"reelfit/internal/util/format"
)

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "profiles",
		Short:         "List the loaded platform profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			asTOML, _ := cmd.Flags().GetBool("toml")
			if asTOML {
				out, err := profilesTOML(a.cfg.Profiles.Names(), a.cfg.Profiles.Get)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}

			var rows [][]string
			for _, name := range a.cfg.Profiles.Names() {
				p, _ := a.cfg.Profiles.Get(name)
				rows = append(rows, []string{
					p.Name,
					p.Canvas().String(),
					fmt.Sprintf("%g", p.MaxFPS),
					fmt.Sprintf("%g-%gs", p.MinDurationSec, p.MaxDurationSec),
					format.HumanizeBytes(p.SizeCeilingBytes),
					format.HumanizeBitrate(p.MinBitrate) + " - " + format.HumanizeBitrate(p.MaxBitrate),
					format.HumanizeBitrate(p.AbsoluteFloor),
					format.HumanizeBitrate(p.AudioBitrate),
					fmt.Sprintf("%d", p.MaxAttempts),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Platform", "Canvas", "Max FPS", "Duration", "Size ceiling", "Video bitrate", "Floor", "Audio", "Attempts"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().Bool("toml", false, "Print the profiles as a config.toml [profiles] section")
	return cmd
}

// profilesTOML renders profiles in the shape the config loader reads back.
func profilesTOML(names []string, get func(string) (model.PlatformProfile, bool)) ([]byte, error) {
	doc := struct {
		Profiles map[string]model.PlatformProfile `toml:"profiles"`
	}{Profiles: map[string]model.PlatformProfile{}}
	for _, n := range names {
		if p, ok := get(n); ok {
			doc.Profiles[n] = p
		}
	}
	return toml.Marshal(doc)
}
