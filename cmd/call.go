package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/USA-RedDragon/germ-rpctest/internal/rpc"
	"github.com/go-errors/errors"
	"github.com/spf13/cobra"
)

var ErrInvalidParam = errors.New("parameters must look like key=value")

func newCallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "call ACTION [key=value ...]",
		Short: "Send a single action to the node and print the answer",
		Long: "Send a single action to the node and print the answer.\n" +
			"Values that are valid JSON are sent as JSON, anything else as a string.",
		Args: cobra.MinimumNArgs(1),
		RunE: runCall,
	}
}

// parseParams turns key=value arguments into request fields.
func parseParams(args []string) (rpc.Params, error) {
	params := rpc.Params{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidParam, arg)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			params[key] = decoded
		} else {
			params[key] = value
		}
	}
	return params, nil
}

func runCall(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	client := rpc.NewClient(config.Node.URL, rpc.WithTimeout(config.Node.Timeout))
	resp, err := client.Raw(cmd.Context(), args[0], params)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
