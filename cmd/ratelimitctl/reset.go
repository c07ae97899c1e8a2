package main

import (
	"fmt"

	"ratelimit-gateway/middleware/ratelimit/domain"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newResetCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <identity>",
		Short: "Delete identity's counter so the next request opens a new window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, closeFn, err := openLimiter(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			deleted, err := fw.Reset(cmd.Context(), domain.Key(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if v.GetBool("json") {
				return writeJSON(out, map[string]any{"identity": args[0], "deleted": deleted})
			}
			if deleted {
				_, err = fmt.Fprintf(out, "reset %s\n", args[0])
			} else {
				_, err = fmt.Fprintf(out, "no window for %s\n", args[0])
			}
			return err
		},
	}
}
