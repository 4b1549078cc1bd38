package cmd

import (
	"fmt"
	"io"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	ocf "github.com/ssargent/avrokit/pkg/container"
	"github.com/ssargent/avrokit/pkg/value"
)

// catCmd represents the cat command
var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print the records of a container file as JSON lines",
	Long: `Decode every record of an object container file and print it in the
Avro JSON encoding, one record per line.

Example:
  avrokit cat events.avro`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		_, err := runCat(cmd.OutOrStdout(), args[0], limit, container.GetLogger())
		return err
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().IntP("limit", "n", 0, "Stop after this many records (0 prints all)")
}

// runCat prints records from the file at path and returns how many it
// printed.
func runCat(out io.Writer, path string, limit int, logger *slog.Logger) (int, error) {
	r, err := ocf.OpenFile(path, nil, ocf.ReaderConfig{Logger: logger})
	if err != nil {
		return 0, err
	}

	it := r.Iterator()
	defer it.Close()

	enc := json.NewEncoder(out)
	n := 0
	for (limit <= 0 || n < limit) && it.Next() {
		if err := enc.Encode(value.ToJSON(it.Value())); err != nil {
			return n, err
		}
		n++
	}
	if err := it.Err(); err != nil {
		return n, fmt.Errorf("record %d: %w", n, err)
	}
	return n, nil
}
