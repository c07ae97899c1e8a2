package main

import (
	"fmt"

	"ratelimit-gateway/middleware/ratelimit/domain"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAdmitCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "admit <identity>",
		Short: "Count one request for identity and report whether it is admitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, closeFn, err := openLimiter(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			res, err := fw.Admit(cmd.Context(), domain.Key(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if v.GetBool("json") {
				return writeJSON(out, map[string]any{
					"identity":  args[0],
					"allowed":   res.Allowed,
					"count":     res.Count,
					"limit":     res.Limit,
					"remaining": res.Remaining,
				})
			}
			_, err = fmt.Fprintf(out, "allowed=%t count=%d limit=%d remaining=%d\n", res.Allowed, res.Count, res.Limit, res.Remaining)
			switch {
			case err != nil:
			case res.Count == 1:
				_, err = fmt.Fprintf(out, "new window, expires in %s\n", res.ResetAfter)
			case res.ResetAfter > 0:
				_, err = fmt.Fprintf(out, "window resets in %s\n", res.ResetAfter)
			}
			return err
		},
	}
}
