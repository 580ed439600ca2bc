package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/xmidt-org/corekit"
)

// usageExitCode is the exit code for bad arguments
const usageExitCode = 2

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(corekit.ExitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "corekit",
		Short:        "Small utilities for digests, environment settings, and value coercion",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		hmacCmd(),
		randomHexCmd(),
		envCmd(),
		nativeCmd(),
	)

	return cmd
}

func hmacCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hmac SECRET MESSAGE",
		Short: "Print the HMAC-SHA256 hex digest of MESSAGE keyed by SECRET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), corekit.HMACDigest(args[0], args[1]))
			return nil
		},
	}
}

func randomHexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "random-hex N",
		Short: "Print N random bytes as hex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return corekit.UseExitCode(
					fmt.Errorf("invalid byte count %q", args[0]),
					usageExitCode,
				)
			}

			value, err := corekit.RandomBytesHex(n)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env KEY [DEFAULT]",
		Short: "Read a setting from the environment, e.g. kinto.name reads KINTO_NAME",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var def interface{}
			if len(args) > 1 {
				def = args[1]
			}

			printValue(cmd, corekit.ReadEnv(args[0], def))
			return nil
		},
	}
}

func nativeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "native VALUE",
		Short: "Show the native value a string coerces to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printValue(cmd, corekit.NativeValue(args[0]))
			return nil
		},
	}
}

func printValue(cmd *cobra.Command, v interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), "%T %v\n", v, v)
}
