package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slib/internal/protocol"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type ackOutput struct {
	OK bool `json:"ok"`
}

// reportAck prints the daemon's boolean answer. A false answer is an error
// so scripts can rely on the exit status.
func reportAck(ctx *commandContext, cmd *cobra.Command, ok bool, success, failure string) error {
	if ctx.jsonOutput() {
		if err := writeJSON(cmd, ackOutput{OK: ok}); err != nil {
			return err
		}
	}
	if !ok {
		return fmt.Errorf("%s (see `slib logs` for details)", failure)
	}
	if !ctx.jsonOutput() {
		fmt.Fprintln(cmd.OutOrStdout(), success)
	}
	return nil
}

func reportItems(ctx *commandContext, cmd *cobra.Command, items []protocol.Item, empty string) error {
	if ctx.jsonOutput() {
		if items == nil {
			items = []protocol.Item{}
		}
		return writeJSON(cmd, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), empty)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), renderItems(items))
	return nil
}

func itemArg(arg string) (protocol.Item, error) {
	id := strings.TrimSpace(arg)
	if id == "" {
		return protocol.Item{}, fmt.Errorf("item id is required")
	}
	return protocol.Item{ID: id}, nil
}

func formatDuration(seconds float32) string {
	if seconds <= 0 {
		return "unknown"
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
