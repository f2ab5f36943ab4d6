package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"slib/internal/daemonctl"
	"slib/internal/ipc"
	"slib/internal/protocol"
)

const (
	stopGracePeriod  = 5 * time.Second
	startWaitTimeout = 10 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startScan bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the slib daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(cmd.Context(), exe, daemonLaunchOptions(ctx, startScan), startWaitTimeout)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().BoolVar(&startScan, "scan", false, "Rescan the music directory after start")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the slib daemon (terminates the process if it declines)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cmd.Context(), ctx.configValue(), stopGracePeriod)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Daemon declined the shutdown request")
			}
			if result.Terminated && result.PID > 0 {
				fmt.Fprintf(stdout, "Sent SIGTERM to daemon process (pid %d)\n", result.PID)
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var restartScan bool
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the slib daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(cmd.Context(), ctx.configValue(), exe,
				daemonLaunchOptions(ctx, restartScan), stopGracePeriod, startWaitTimeout)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}
	restartCmd.Flags().BoolVar(&restartScan, "scan", false, "Rescan the music directory after start")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, playback and path status",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.configValue())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, statusJSON(snap))
			}

			report := newStatusReport(cmd.OutOrStdout())
			report.daemon(snap)
			report.checks(snap.Checks)
			if snap.Playback != nil {
				report.playback(*snap.Playback)
			}
			return nil
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the daemon speaks this client's protocol revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			local := protocol.Identity()
			client, err := ipc.Dial(cmd.Context(), cfg.Paths.SocketPath,
				ipc.WithDialTimeout(cfg.DialTimeout()), ipc.WithoutVerify())
			if err != nil {
				return wrapDialError(err, cfg.Paths.SocketPath)
			}
			remote, err := client.Verify(cmd.Context())
			if err != nil {
				return wrapDialError(err, cfg.Paths.SocketPath)
			}
			match := local.Equal(remote)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, verifyJSON{Client: local.String(), Daemon: remote.String(), Match: match}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Client identity: %s\n", local)
				fmt.Fprintf(out, "Daemon identity: %s\n", remote)
			}
			if !match {
				return errors.New("build identity mismatch: restart the daemon with this slib binary")
			}
			if !ctx.jsonOutput() {
				fmt.Fprintln(cmd.OutOrStdout(), "Identities match")
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd, verifyCmd}
}

type verifyJSON struct {
	Client string `json:"client"`
	Daemon string `json:"daemon"`
	Match  bool   `json:"match"`
}

type statusCheckJSON struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

type statusOutput struct {
	Running  bool              `json:"running"`
	PID      int               `json:"pid,omitempty"`
	Socket   string            `json:"socket"`
	Identity string            `json:"identity,omitempty"`
	Mismatch bool              `json:"identity_mismatch"`
	Playback *protocol.Status  `json:"playback,omitempty"`
	Checks   []statusCheckJSON `json:"checks"`
}

func statusJSON(snap *daemonctl.StatusSnapshot) statusOutput {
	out := statusOutput{
		Running:  snap.Running,
		PID:      snap.PID,
		Socket:   snap.Socket,
		Identity: snap.Identity,
		Mismatch: snap.Mismatch,
		Playback: snap.Playback,
		Checks:   make([]statusCheckJSON, 0, len(snap.Checks)),
	}
	for _, check := range snap.Checks {
		out.Checks = append(out.Checks, statusCheckJSON{Name: check.Name, Passed: check.Passed, Detail: check.Detail})
	}
	return out
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext, scan bool) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{
		SocketPath:  ctx.socketPath(),
		ScanOnStart: scan,
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
