package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/daemon"
	"github.com/theirongolddev/pburn/internal/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// monitorState is written to the data dir while a monitor runs.
type monitorState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DBPath    string    `json:"db_path"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonEventsBuffer int
	flagDaemonInbox        string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch budgets and deadlines in the background, serving status over HTTP",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running monitor and its latest poll",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running monitor",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Poll interval (default from config)")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Status events kept in memory (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonInbox, "inbox", "", "Directory watched for expense exports (default from config)")
	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run in the background, logging to the data dir")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func stateFile() string { return filepath.Join(config.DataDir(), "pburnd.json") }
func monitorLog() string { return filepath.Join(config.DataDir(), "pburnd.log") }

// applyDaemonDefaults fills unset flags from the [daemon] config section.
func applyDaemonDefaults() {
	dc := appConfig.Daemon
	if flagDaemonAddr == "" {
		flagDaemonAddr = dc.Addr
	}
	if flagDaemonInterval <= 0 {
		flagDaemonInterval = time.Duration(dc.IntervalSec) * time.Second
	}
	if flagDaemonEventsBuffer <= 0 {
		flagDaemonEventsBuffer = dc.EventsBuffer
	}
	if flagDaemonInbox == "" {
		flagDaemonInbox = dc.InboxDir
	}
}

func runDaemon(_ *cobra.Command, _ []string) error {
	applyDaemonDefaults()
	if err := claimStateFile(stateFile()); err != nil {
		return err
	}
	if flagDaemonDetach {
		return startDetached()
	}
	return runMonitor()
}

// startDetached re-executes pburn without --detach, output appended to the log.
func startDetached() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(config.DataDir(), 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logf, err := os.OpenFile(monitorLog(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open monitor log: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, withoutDetach(os.Args[1:])...)
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	fmt.Printf("  Monitor started (pid %d)\n", child.Process.Pid)
	fmt.Printf("  Status: http://%s/v1/status\n", flagDaemonAddr)
	fmt.Printf("  Log: %s\n", monitorLog())
	return nil
}

func runMonitor() error {
	if err := os.MkdirAll(config.DataDir(), 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	st := monitorState{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		DBPath:    dbPath(),
	}
	if err := writeMonitorState(stateFile(), st); err != nil {
		return err
	}
	defer func() { _ = os.Remove(stateFile()) }()

	log := observability.NewLogger(appConfig.Log.Level)
	if flagVerbose {
		log = observability.NewLogger("debug")
	}
	defer func() { _ = log.Sync() }()

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	eng := appConfig.Engine()
	eng.Logger = log

	svc := daemon.New(daemon.Config{
		DBPath:       st.DBPath,
		InboxDir:     flagDaemonInbox,
		Interval:     flagDaemonInterval,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
		Engine:       eng,
		Deadline:     appConfig.DeadlineThresholds(),
	}, ledger, log, observability.NewMetrics())

	fmt.Printf("  pburn monitor on http://%s, polling %s every %s\n", flagDaemonAddr, st.DBPath, flagDaemonInterval)
	if flagDaemonInbox != "" {
		fmt.Printf("  Importing exports dropped into %s\n", flagDaemonInbox)
	}
	log.Info("monitor started",
		zap.Int("pid", st.PID),
		zap.String("addr", flagDaemonAddr),
		zap.Duration("interval", flagDaemonInterval),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	st, err := readMonitorState(stateFile())
	if err != nil || !processAlive(st.PID) {
		fmt.Println("  Monitor: not running")
		return nil
	}
	fmt.Printf("  Monitor: pid %d since %s\n", st.PID, st.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("  Ledger: %s\n", st.DBPath)

	status, err := fetchStatus(st.Addr)
	if err != nil {
		fmt.Printf("  API (%s): %v\n", st.Addr, err)
		return nil
	}

	if status.LastPollAt.IsZero() {
		fmt.Println("  Last poll: pending")
	} else {
		fmt.Printf("  Last poll: %s (%d total)\n", status.LastPollAt.Local().Format(time.RFC3339), status.PollCount)
	}
	fmt.Printf("  Projects: %d (%d ok, %d warning, %d critical)\n",
		status.Summary.Projects, status.Summary.OK, status.Summary.Warning, status.Summary.Critical)
	fmt.Printf("  Deadlines: %d due soon, %d overdue\n", status.Summary.DueSoon, status.Summary.Overdue)
	fmt.Printf("  Events: %d kept, %d subscribers\n", status.EventCount, status.SubscriberCount)
	if status.LastError != "" {
		fmt.Printf("  Last error: %s\n", status.LastError)
	}
	return nil
}

func fetchStatus(addr string) (daemon.Status, error) {
	var st daemon.Status
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response: %w", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	st, err := readMonitorState(stateFile())
	if err != nil || !processAlive(st.PID) {
		return errors.New("monitor is not running")
	}
	proc, err := os.FindProcess(st.PID)
	if err != nil {
		return fmt.Errorf("find monitor: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal monitor: %w", err)
	}

	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); {
		if !processAlive(st.PID) {
			_ = os.Remove(stateFile())
			fmt.Printf("  Monitor stopped (pid %d)\n", st.PID)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("monitor (pid %d) still running after SIGTERM", st.PID)
}

func withoutDetach(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

// claimStateFile fails if a live monitor owns path and clears a stale one.
func claimStateFile(path string) error {
	st, err := readMonitorState(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err == nil && processAlive(st.PID):
		return fmt.Errorf("monitor already running (pid %d)", st.PID)
	}
	_ = os.Remove(path)
	return nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func writeMonitorState(path string, st monitorState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode monitor state: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readMonitorState(path string) (monitorState, error) {
	var st monitorState
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}
