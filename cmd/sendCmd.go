package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NalediMadlopha/citrus/internal/correlation"
	"github.com/NalediMadlopha/citrus/internal/message"
	"github.com/NalediMadlopha/citrus/internal/sshclient"
)

// sendResult is what send prints: the correlation key, the identity the
// command ran as, and the response.
type sendResult struct {
	Key                string `yaml:"key"`
	User               string `yaml:"user"`
	sshclient.Response `yaml:",inline"`
}

// sendCmd runs one command and prints its reply. The remote exit code is
// part of the output, not the process status.
var sendCmd = &cobra.Command{
	Use:   "send [flags] -- command [args...]",
	Short: "Run one command and print the correlated reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := endpointConfig(nil)
		if err != nil {
			return err
		}
		client, err := newClientFunc(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		step := planStep{Command: args[0], Args: args[1:]}
		m, err := sshclient.NewRequestMessage(sshclient.Request{Command: step.line(), Stdin: sendStdin})
		if err != nil {
			return err
		}
		if sendAsUser != "" {
			m.SetHeader(message.HeaderUser, sendAsUser)
		}

		scope := correlation.NewScope()
		key, err := client.Send(cmd.Context(), m, scope)
		if err != nil {
			return fmt.Errorf("send failed: %w", err)
		}
		reply, err := client.ReceiveTimeout(cmd.Context(), scope, cfgReplyTimeout)
		if err != nil {
			return err
		}
		resp, err := sshclient.DecodeResponse(reply)
		if err != nil {
			return err
		}

		b, err := sshclient.EncodeYAML(sendResult{
			Key:      key.String(),
			User:     reply.Header(message.HeaderUser),
			Response: resp,
		})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendStdin, "stdin", "", "Text written to the command's standard input")
	sendCmd.Flags().StringVar(&sendAsUser, "as-user", "", "Remote user for this command instead of --user")
}
