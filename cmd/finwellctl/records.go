package main

import (
	"strconv"

	"github.com/spf13/cobra"

	id "finwell/pkg/domain"
)

func parseFigures(args []string) ([]int64, error) {
	values := make([]int64, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func newEncryptCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <value>...",
		Short: "Encrypt values under the oracle key and upload them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFigures(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c := opts.client()
			key, err := c.PublicKey(ctx)
			if err != nil {
				return err
			}
			handles, err := c.EncryptAndUpload(ctx, key, values...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"handles": handles})
		},
	}
}

func newSubmitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "submit <income> <expenses> <savings>",
		Short:   "Encrypt three figures and register them as a record",
		Example: "  finwellctl submit 100 50 20",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFigures(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c := opts.client()
			key, err := c.PublicKey(ctx)
			if err != nil {
				return err
			}
			h, err := c.EncryptAndUpload(ctx, key, values...)
			if err != nil {
				return err
			}
			recordID, err := c.Submit(ctx, h[0], h[1], h[2])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"record_id": recordID})
		},
	}
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <record-id>",
		Short: "Request a wellness score for a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID, err := id.ParseRecordID(args[0])
			if err != nil {
				return err
			}
			if err := opts.client().RequestAnalysis(cmd.Context(), recordID); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"record_id": recordID, "status": "requested"})
		},
	}
}

func newDecryptCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <record-id>",
		Short: "Ask the oracle to reveal a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID, err := id.ParseRecordID(args[0])
			if err != nil {
				return err
			}
			requestID, err := opts.client().RequestDecryption(cmd.Context(), recordID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"record_id": recordID, "request_id": requestID})
		},
	}
}

func newRevealedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "revealed <record-id>",
		Short: "Show the revealed figures of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID, err := id.ParseRecordID(args[0])
			if err != nil {
				return err
			}
			view, err := opts.client().Revealed(cmd.Context(), recordID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}
