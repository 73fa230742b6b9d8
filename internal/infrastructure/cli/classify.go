package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/latentqa-go/internal/domain/usecases"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <query...>",
		Short: "Print the retrieval intent for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			intent := usecases.Classify(strings.Join(args, " "))
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(intent)
		},
	}
}
