package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/daemon"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/logging"
	"github.com/theirongolddev/fintrack/internal/store"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Ledger    string    `json:"ledger"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
	flagDaemonEventsLimit  int
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Regenerate recurring transactions in the background and serve status over HTTP/SSE",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

var daemonEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the daemon's recent events",
	RunE:  runDaemonEvents,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Regeneration interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", "", "PID file path (default in the cache dir)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", "", "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonEventsCmd.Flags().IntVarP(&flagDaemonEventsLimit, "limit", "l", 20, "Show at most this many events")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd, daemonEventsCmd)
	rootCmd.AddCommand(daemonCmd)
}

func daemonAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return appConfig.Daemon.Addr
}

func daemonPIDFile() string {
	if flagDaemonPIDFile != "" {
		return flagDaemonPIDFile
	}
	return filepath.Join(ledger.CacheDir(), "fintrackd.pid")
}

func daemonLogFile() string {
	switch {
	case flagDaemonLogFile != "":
		return flagDaemonLogFile
	case appConfig.Daemon.LogFile != "":
		return appConfig.Daemon.LogFile
	default:
		return filepath.Join(ledger.CacheDir(), "fintrackd.log")
	}
}

func daemonConfig() (daemon.Config, error) {
	cfg := daemon.Config{
		Addr:         daemonAddr(),
		Interval:     flagDaemonInterval,
		EventsBuffer: flagDaemonEventsBuffer,
		WarnPercent:  appConfig.Budget.WarnPercent,
	}
	if cfg.Interval == 0 {
		d, err := appConfig.IntervalDuration()
		if err != nil {
			return cfg, err
		}
		cfg.Interval = d
	}
	if cfg.EventsBuffer == 0 {
		cfg.EventsBuffer = appConfig.Daemon.EventsBuffer
	}
	return cfg, nil
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagDaemonDetach {
		return startDaemonDetached()
	}

	return runDaemonForeground()
}

func startDaemonDetached() error {
	pidFile, logFile := daemonPIDFile(), daemonLogFile()
	if err := ensureDaemonNotRunning(pidFile); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(pidFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	cmd := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.Stdin = nil
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidFile)
	fmt.Printf("  API: http://%s/v1/status\n", daemonAddr())
	fmt.Printf("  Log: %s\n", logFile)
	return nil
}

func runDaemonForeground() error {
	pidFile := daemonPIDFile()
	if err := ensureDaemonNotRunning(pidFile); err != nil {
		return err
	}
	cfg, err := daemonConfig()
	if err != nil {
		return err
	}

	// A detached child writes to the log file; JSON lines are easier to ship.
	if flagDaemonChild {
		if logger, err = logging.New(appConfig.Logging.Level, logging.FormatJSON, os.Stderr); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(pidFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}

	pid := os.Getpid()
	if err := writePID(pidFile, pid); err != nil {
		return err
	}
	defer func() { _ = os.Remove(pidFile) }()

	path := ledger.DocumentPath(dataDir())
	state := daemonRuntimeState{
		PID:       pid,
		Addr:      cfg.Addr,
		StartedAt: time.Now(),
		Ledger:    path,
	}
	_ = writeState(statePath(pidFile), state)
	defer func() { _ = os.Remove(statePath(pidFile)) }()

	// The service runs its own regeneration pass, so skip the one on load.
	lg, err := ledger.Open(path, ledger.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer lg.Close()

	mirror, err := store.Open(ledger.MirrorPath())
	if err != nil {
		logger.WithError(err).Warn("SQL mirror disabled")
		mirror = nil
	} else {
		defer func() { _ = mirror.Close() }()
	}

	svc := daemon.New(cfg, lg, mirror, logger)

	if !flagDaemonChild {
		fmt.Printf("  fintrack daemon listening on http://%s\n", cfg.Addr)
		fmt.Printf("  Regenerating every %s for %s\n", cfg.Interval, path)
		fmt.Printf("  Stop with: fintrack daemon stop --pid-file %s\n", pidFile)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runningDaemonAddr returns the address the running daemon recorded, falling
// back to the configured one.
func runningDaemonAddr(pidFile string) string {
	if st, err := readState(statePath(pidFile)); err == nil && st.Addr != "" {
		return st.Addr
	}
	return daemonAddr()
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	pidFile := daemonPIDFile()
	pid, err := readPID(pidFile)
	if err != nil {
		fmt.Printf("  Daemon: not running (pid file not found)\n")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := runningDaemonAddr(pidFile)
	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := daemon.NewClient(addr).Status(cmd.Context())
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	fmt.Printf("  Ledger: %s\n", st.LedgerPath)
	if st.LastRunAt.IsZero() {
		fmt.Printf("  Last run: pending\n")
	} else {
		fmt.Printf("  Last run: %s\n", st.LastRunAt.Local().Format(time.RFC3339))
		fmt.Printf("  Next run: %s\n", st.NextRunAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Runs: %d\n", st.RunCount)
	if st.LastRun != nil {
		fmt.Printf("  Last pass: %d generated, %d rules failed\n", st.LastRun.Generated, st.LastRun.RulesFailed)
	}
	fmt.Printf("  Transactions: %s\n", cli.FormatNumber(int64(st.Summary.Transactions)))
	fmt.Printf("  This month: %s in, %s out\n", cli.FormatMoney(st.Summary.MonthIncome), cli.FormatMoney(st.Summary.MonthExpense))
	for _, b := range st.Summary.Budgets {
		fmt.Printf("    %-16s %s\n", b.Category, cli.FormatBudgetPercent(b.Percentage))
	}
	for _, g := range st.Summary.Goals {
		mark := ""
		if g.Completed {
			mark = " (done)"
		}
		fmt.Printf("    %-16s %s%s\n", truncate(g.Description, 16), cli.FormatPercent(g.Percentage), mark)
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonEvents(cmd *cobra.Command, _ []string) error {
	events, err := daemon.NewClient(runningDaemonAddr(daemonPIDFile())).Events(cmd.Context())
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("  No events yet.")
		return nil
	}
	if flagDaemonEventsLimit > 0 && len(events) > flagDaemonEventsLimit {
		events = events[len(events)-flagDaemonEventsLimit:]
	}
	for _, ev := range events {
		fmt.Printf("  %4d  %s  %-15s %s\n", ev.ID, ev.Timestamp.Local().Format("Jan 02 15:04"), ev.Type, describeEvent(ev))
	}
	return nil
}

func describeEvent(ev daemon.Event) string {
	switch {
	case ev.Run != nil:
		return fmt.Sprintf("%d generated as of %s", ev.Run.Generated, ev.Run.AsOf)
	case ev.Budget != nil:
		return fmt.Sprintf("%s at %s", ev.Budget.Category, cli.FormatBudgetPercent(ev.Budget.Percentage))
	case ev.Goal != nil:
		return fmt.Sprintf("%s reached %s", ev.Goal.Description, cli.FormatMoney(ev.Goal.Target))
	case ev.RuleID != "":
		return fmt.Sprintf("rule %s: %s", shortID(ev.RuleID), ev.Error)
	case ev.Snapshot != nil:
		return fmt.Sprintf("%d transactions, %d rules", ev.Snapshot.Transactions, ev.Snapshot.Rules)
	}
	return ""
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pidFile := daemonPIDFile()
	pid, err := readPID(pidFile)
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(pidFile)
			_ = os.Remove(statePath(pidFile))
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func ensureDaemonNotRunning(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	_ = os.Remove(pidFile)
	_ = os.Remove(statePath(pidFile))
	return nil
}

func writePID(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func readPID(path string) (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func statePath(pidFile string) string {
	return pidFile + ".json"
}

func writeState(path string, st daemonRuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readState(path string) (daemonRuntimeState, error) {
	var st daemonRuntimeState
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, err
	}
	return st, nil
}
