package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"watchtrack/internal/bootstrap"
	"watchtrack/internal/modules/tracker/dto"
	"watchtrack/internal/platform/config"
	apperrors "watchtrack/internal/platform/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	dataDir    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "watchtrack",
		Short:         "Video watch and inactivity tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default <data-dir>/config.yaml)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "directory for state, journal and daemon files")

	root.AddCommand(newDaemonCmd(flags))
	root.AddCommand(newLoginCmd(flags))
	root.AddCommand(newLogoutCmd(flags))
	root.AddCommand(newStartCmd(flags))
	root.AddCommand(newStopCmd(flags))
	root.AddCommand(newResetCmd(flags))
	root.AddCommand(newStatusCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newConfigCmd(flags))
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	return config.Load(flags.configPath, flags.dataDir)
}

func loadApp(flags *globalFlags) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withApp runs fn against a freshly wired app and releases it afterwards.
func withApp(flags *globalFlags, fn func(ctx context.Context, app *bootstrap.App) error) error {
	app, err := loadApp(flags)
	if err != nil {
		return err
	}
	defer app.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return fn(ctx, app)
}

func newDaemonCmd(flags *globalFlags) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the tracker daemon"}
	daemon.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the tracker daemon in the foreground",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			d, err := bootstrap.NewDaemon(cfg)
			if err != nil {
				return err
			}
			defer d.Close()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return d.Run(ctx)
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show tracker daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				status, err := app.TrackerCLI.DaemonStatus(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "running=%t pid=%d socket=%s log=%s\n", status.Running, status.PID, status.SocketPath, status.LogPath)
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the tracker daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.TrackerCLI.StopDaemon(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
				return nil
			})
		},
	})
	return daemon
}

func newLoginCmd(flags *globalFlags) *cobra.Command {
	var username, password string
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "login --username <name>",
		Short: "Log in against the collector and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" {
				return fmt.Errorf("--username is required")
			}
			if passwordStdin {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = line
			}
			if password == "" {
				password = os.Getenv(config.EnvPrefix + "PASSWORD")
			}
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Login(ctx, username, password)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (session %s)\n", out.Username, out.SessionID)
				if out.Generated {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "collector assigned no session id; generated one locally")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "collector username")
	cmd.Flags().StringVar(&password, "password", "", "collector password (or "+config.EnvPrefix+"PASSWORD)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				// a running daemon posts /logout itself when stopped
				notify := false
				if err := app.TrackerCLI.Stop(ctx); err != nil {
					if !errors.Is(err, apperrors.ErrDaemonNotRunning) {
						app.Log.Warn().Err(err).Msg("stop tracking before logout")
					}
					notify = true
				}
				out, err := app.SessionCLI.Logout(ctx, notify)
				if errors.Is(err, apperrors.ErrNotLoggedIn) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
					return nil
				}
				if err != nil {
					return err
				}
				if out.RemoteErr != "" {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "collector logout failed: %s\n", out.RemoteErr)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged out %s\n", out.Username)
				return nil
			})
		},
	}
}

func newStartCmd(flags *globalFlags) *cobra.Command {
	var username, sessionID string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start tracking on the running daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.TrackerCLI.Start(ctx, username, sessionID); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "tracking started")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username to track as (default: stored session)")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "session id to report under (default: stored session)")
	return cmd
}

func newStopCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop tracking and log the session out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.TrackerCLI.Stop(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "tracking stopped")
				return nil
			})
		},
	}
}

func newResetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear counters and bindings without reporting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.TrackerCLI.Reset(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "tracker reset")
				return nil
			})
		},
	}
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the live tracker state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				status, err := app.TrackerCLI.Status(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently reported videos and inactivity periods",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				history, err := app.TrackerCLI.History(ctx, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), history)
				}
				printHistory(cmd.OutOrStdout(), history)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "entries per kind")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect and scaffold configuration"}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags.configPath
			if path == "" {
				cfg := config.Defaults()
				if flags.dataDir != "" {
					cfg.DataDir = flags.dataDir
				}
				path = cfg.FilePath()
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			raw, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	})
	return cfgCmd
}

func printStatus(w io.Writer, s dto.StatusOutput) {
	if s.LoggedIn {
		_, _ = fmt.Fprintf(w, "user=%s session=%s tracking=%t\n", s.Username, s.SessionID, s.Tracking)
	} else {
		_, _ = fmt.Fprintf(w, "logged out tracking=%t\n", s.Tracking)
	}
	_, _ = fmt.Fprintf(w, "%s\n", s.CounterText)
	_, _ = fmt.Fprintf(w, "inactivity=%s periods=%d page_visible=%t\n", s.Inactivity.Phase, s.Periods, s.PageVisible)
	for _, v := range s.Videos {
		marker := " "
		if v.Current {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %s %d/%ds %s keys=%d\n", marker, v.Identity, v.Watched, v.Duration, v.Status, v.Keys)
	}
	if s.LastInactivity != nil {
		p := s.LastInactivity
		_, _ = fmt.Fprintf(w, "last inactivity: %s %ds (%s - %s)\n", p.Type, p.Duration, p.Start.Format(time.TimeOnly), p.End.Format(time.TimeOnly))
	}
}

func printHistory(w io.Writer, h dto.History) {
	_, _ = fmt.Fprintf(w, "videos (%d)\n", len(h.Videos))
	for _, v := range h.Videos {
		_, _ = fmt.Fprintf(w, "  %s %s %s %d/%ds %s\n", v.RecordedAt.Local().Format(time.DateTime), v.SessionID, v.VideoID, v.Watched, v.Duration, v.Status)
	}
	_, _ = fmt.Fprintf(w, "inactivity (%d)\n", len(h.Inactivity))
	for _, p := range h.Inactivity {
		_, _ = fmt.Fprintf(w, "  %s %s %s %ds\n", p.Start.Local().Format(time.DateTime), p.SessionID, p.Type, p.Duration)
	}
}

func writeJSON(w io.Writer, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
