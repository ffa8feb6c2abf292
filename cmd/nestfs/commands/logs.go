package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/pkg/config"
)

// textTimestampFormat matches the prefix the text log handler writes.
const textTimestampFormat = "2006-01-02 15:04:05"

var (
	logsFollow bool
	logsLines  int
	logsSince  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail server logs",
	Long: `Print the NestFS server log file, newest lines last.

The log path comes from 'logging.output' in the server configuration. When
the server logs to stdout or stderr there is no file to read and the command
says so instead.

Examples:
  # Last 100 lines (default)
  nestfs logs

  # Last 50 lines
  nestfs logs -n 50

  # Stream new lines as they arrive
  nestfs logs -f

  # Only lines after a given time
  nestfs logs --since "2026-01-15T10:00:00Z"`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Stream new log lines as they are written")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "How many trailing lines to print")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Skip lines older than this RFC3339 timestamp")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logPath := cfg.Logging.Output
	if logPath == "stdout" || logPath == "stderr" {
		return fmt.Errorf("server logs to %s, not a file\nPoint 'logging.output' at a file path to use this command", logPath)
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s\nEither the server has not started yet or it logs elsewhere", logPath)
	}

	var sinceTime time.Time
	if logsSince != "" {
		sinceTime, err = time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since format (use RFC3339): %w", err)
		}
	}

	if err := showLogs(logPath, logsLines, sinceTime); err != nil {
		return err
	}
	if logsFollow {
		return followLogs(logPath)
	}
	return nil
}

// showLogs prints the trailing lines of the log file, dropping entries
// older than since.
func showLogs(logPath string, lines int, since time.Time) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var kept []string
	scanner := bufio.NewScanner(file)
	// Long JSON lines exceed the default token size
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !since.IsZero() {
			if ts := lineTimestamp(line); !ts.IsZero() && ts.Before(since) {
				continue
			}
		}
		kept = append(kept, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	start := 0
	if len(kept) > lines {
		start = len(kept) - lines
	}
	for _, line := range kept[start:] {
		fmt.Println(line)
	}
	return nil
}

// followLogs tails the log file until interrupted, printing lines as they
// are appended.
func followLogs(logPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(logPath); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Only new content from here on; showLogs already printed the tail
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of log file: %w", err)
	}
	reader := bufio.NewReader(file)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Fprintf(os.Stderr, "Following %s (Ctrl+C to stop)...\n", logPath)

	for {
		select {
		case <-sigCh:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Write) {
				for {
					line, err := reader.ReadString('\n')
					if err != nil {
						break
					}
					fmt.Print(line)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// lineTimestamp extracts the timestamp from a log line. Text lines start
// with "2006-01-02 15:04:05"; JSON lines carry a "time" field in RFC3339.
// Returns the zero time when no timestamp is found.
func lineTimestamp(line string) time.Time {
	if len(line) >= len(textTimestampFormat) {
		if ts, err := time.ParseInLocation(textTimestampFormat, line[:len(textTimestampFormat)], time.Local); err == nil {
			return ts
		}
	}

	const timeKey = `"time":"`
	idx := strings.Index(line, timeKey)
	if idx < 0 {
		return time.Time{}
	}
	rest := line[idx+len(timeKey):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, rest[:end]); err == nil {
		return ts
	}
	return time.Time{}
}
