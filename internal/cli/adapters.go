package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AdapterView describes one file codec.
type AdapterView struct {
	Name     string   `json:"name"`
	Suffixes []string `json:"suffixes"`
	Import   []string `json:"import"`
	Export   bool     `json:"export"`
}

// AdaptersView is the JSON form of the adapters command.
type AdaptersView struct {
	Enabled      bool          `json:"enabled"`
	ExportSuffix string        `json:"export_suffix"`
	Adapters     []AdapterView `json:"adapters"`
}

// NewAdaptersCommand creates the adapters command.
func NewAdaptersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List the timeline file formats and which are enabled",
		Long: `List every timeline file codec with the suffixes it claims, which of those
suffixes import accepts under the current configuration, and which codec
export writes by default.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdapters(rootOpts, cmd)
		},
	}
}

func runAdapters(opts *RootOptions, cmd *cobra.Command) error {
	env, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	view := AdaptersView{
		Enabled:      env.cfg.Adapters.Register,
		ExportSuffix: env.cfg.Adapters.ExportSuffix,
		Adapters:     []AdapterView{},
	}
	for _, c := range env.pipeline.Codecs().Codecs() {
		a := AdapterView{Name: c.Name(), Suffixes: c.Suffixes(), Import: []string{}}
		for _, s := range c.Suffixes() {
			if view.Enabled && env.cfg.ImportAllowed(s) {
				a.Import = append(a.Import, s)
			}
			if view.Enabled && s == view.ExportSuffix {
				a.Export = true
			}
		}
		view.Adapters = append(view.Adapters, a)
	}

	if env.formatter.IsJSON() {
		return env.formatter.Success(view)
	}

	w := cmd.OutOrStdout()
	if !view.Enabled {
		fmt.Fprintln(w, "File adapters are disabled (adapters.register = false).")
	}
	rows := make([][]string, 0, len(view.Adapters))
	for _, a := range view.Adapters {
		export := ""
		if a.Export {
			export = "." + view.ExportSuffix
		}
		rows = append(rows, []string{a.Name, strings.Join(a.Suffixes, ", "), strings.Join(a.Import, ", "), export})
	}
	fmt.Fprintln(w, renderTable([]string{"Codec", "Suffixes", "Import", "Export"}, rows, nil))
	return nil
}
