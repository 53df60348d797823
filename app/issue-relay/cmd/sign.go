package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cchalm/issue-relay/internal/apperr"
	"github.com/cchalm/issue-relay/internal/config"
	"github.com/cchalm/issue-relay/internal/signature"
)

var signOpts struct {
	secret string
	file   string
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Compute the X-Hub-Signature-256 value for a payload",
	Long: `Prints the signature header value for a payload, for sending test
deliveries to the webhook endpoint. The secret defaults to GITHUB_WEBHOOK_SECRET
and the payload is read from stdin when --file is not given.`,
	Example: `  curl -X POST localhost:3000/webhook/github \
    -H "X-Hub-Signature-256: $(issue-relay sign --file payload.json)" \
    --data-binary @payload.json`,
	RunE: runSign,
}

func init() {
	signCmd.Flags().StringVar(&signOpts.secret, "secret", "", "Webhook secret (default $GITHUB_WEBHOOK_SECRET)")
	signCmd.Flags().StringVarP(&signOpts.file, "file", "f", "", "Payload file (default stdin)")

	rootCmd.AddCommand(signCmd)
}

func runSign(cmd *cobra.Command, args []string) error {
	secret := signOpts.secret
	if secret == "" {
		secret = cfg.WebhookSecret
	}
	if secret == "" {
		return apperr.Configuration(config.EnvWebhookSecret)
	}

	var (
		body []byte
		err  error
	)
	if signOpts.file == "" || signOpts.file == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(signOpts.file)
	}
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), signature.Sign(body, secret))
	return err
}
