// Command finwellctl drives a finwell server from the command line: it mints
// development tokens, encrypts figures under the oracle key and walks a
// record through submission and decryption.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"finwell/internal/client"
)

type options struct {
	server string
	token  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "finwellctl",
		Short:         "Client for the finwell encrypted wellness service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("FINWELL_SERVER", "http://localhost:8080"), "server base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("FINWELL_TOKEN"), "bearer token (defaults to $FINWELL_TOKEN)")

	root.AddCommand(
		newTokenCmd(),
		newEncryptCmd(opts),
		newSubmitCmd(opts),
		newAnalyzeCmd(opts),
		newDecryptCmd(opts),
		newRevealedCmd(opts),
	)
	return root
}

func (o *options) client() *client.Client {
	return client.New(o.server, o.token)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
