package main

import (
	"fmt"

	"ratelimit-gateway/middleware/ratelimit/domain"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status <identity>",
		Short: "Show the counter and remaining TTL of identity's window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, closeFn, err := openLimiter(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			st, err := fw.Status(cmd.Context(), domain.Key(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if v.GetBool("json") {
				return writeJSON(out, map[string]any{
					"key":     st.Key,
					"count":   st.Count,
					"limit":   st.Limit,
					"ttl":     formatTTL(st),
					"limited": st.Limited,
				})
			}
			_, err = fmt.Fprintf(out, "key=%s count=%d limit=%d ttl=%s limited=%t\n", st.Key, st.Count, st.Limit, formatTTL(st), st.Limited)
			return err
		},
	}
}

func formatTTL(st domain.WindowStatus) string {
	switch {
	case st.TTL == -2:
		return "none"
	case st.TTL < 0:
		return "persistent"
	}
	return st.TTL.String()
}
