package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	ocf "github.com/ssargent/avrokit/pkg/container"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Describe a container file",
	Long: `Print the codec, schema, sync marker, user metadata and the number of
blocks and records of an object container file.

Example:
  avrokit info events.avro`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(cmd.OutOrStdout(), args[0], container.GetLogger())
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(out io.Writer, path string, logger *slog.Logger) error {
	r, err := ocf.OpenFile(path, nil, ocf.ReaderConfig{Logger: logger})
	if err != nil {
		return err
	}
	// counting blocks means decoding them
	if _, err := r.ReadAll(); err != nil {
		return err
	}

	fmt.Fprintf(out, "file:        %s\n", path)
	fmt.Fprintf(out, "codec:       %s\n", r.Codec().Name())
	fmt.Fprintf(out, "schema:      %s\n", r.Schema().FullName())
	fmt.Fprintf(out, "fingerprint: %016x\n", r.Schema().Fingerprint())
	fmt.Fprintf(out, "sync marker: %s\n", r.SyncMarker())
	fmt.Fprintf(out, "blocks:      %d\n", r.Blocks())
	fmt.Fprintf(out, "records:     %d\n", r.Objects())

	meta := r.Metadata()
	keys := make([]string, 0, len(meta))
	for k := range meta {
		if k == ocf.SchemaKey || k == ocf.CodecKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "meta %s: %q\n", k, meta[k])
	}
	return nil
}
