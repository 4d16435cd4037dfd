package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	walkdir "github.com/TFMV/walkdir/internal/walk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Watch command options
	watchEvents        []string
	watchRecursive     bool
	watchFollowLinks   bool
	watchMaxDepth      int
	watchFormat        string
	watchPattern       string
	watchIgnore        string
	watchTimeout       time.Duration
	watchIncludeHidden bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch for filesystem changes",
	Long: `Watch for filesystem changes and report files that are created, modified, or deleted.

With --recursive every directory reached by walking the path is watched,
and new directories are added as they appear. --follow-links extends the
walk through symbolic links; links that loop back are skipped.

Examples:
  walkdir watch /path/to/watch
  walkdir watch --events=create,modify /path/to/watch
  walkdir watch --pattern="*.go" --format="{base} was {event} at {time}" /path/to/watch
  walkdir watch --recursive --follow-links /path/to/watch`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get the directory to watch
		var watchDir string
		if len(args) > 0 {
			watchDir = args[0]
		} else {
			var err error
			watchDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("error getting current directory: %w", err)
			}
		}

		events, err := parseWatchEvents(watchEvents)
		if err != nil {
			return err
		}

		logger := newLogger(viper.GetBool("verbose"), viper.GetBool("silent"))
		defer logger.Sync() //nolint:errcheck

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		opts := walkdir.WatchOptions{
			Events:         events,
			Recursive:      watchRecursive,
			FollowSymlinks: watchFollowLinks,
			MaxDepth:       watchMaxDepth,
			Pattern:        watchPattern,
			IgnorePattern:  watchIgnore,
			IncludeHidden:  watchIncludeHidden,
			Timeout:        watchTimeout,
			Logger:         logger,
		}

		if !viper.GetBool("silent") {
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes...\n", watchDir)
			fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to exit.")
		}

		if watchFormat != "" {
			err = walkdir.WatchWithFormat(ctx, watchDir, opts, watchFormat)
		} else {
			err = walkdir.Watch(ctx, watchDir, opts, nil)
		}
		if err != nil {
			return fmt.Errorf("error watching directory: %w", err)
		}
		return nil
	},
}

// parseWatchEvents converts event names to WatchEvent values.
func parseWatchEvents(names []string) ([]walkdir.WatchEvent, error) {
	var events []walkdir.WatchEvent
	for _, e := range names {
		switch strings.ToLower(strings.TrimSpace(e)) {
		case "create":
			events = append(events, walkdir.EventCreate)
		case "write", "modify":
			events = append(events, walkdir.EventModify)
		case "remove", "delete":
			events = append(events, walkdir.EventDelete)
		case "rename":
			events = append(events, walkdir.EventRename)
		case "chmod":
			events = append(events, walkdir.EventChmod)
		default:
			return nil, fmt.Errorf("unknown event type: %s", e)
		}
	}
	return events, nil
}

func init() {
	rootCmd.AddCommand(watchCmd)

	// Define flags for the watch command
	watchCmd.Flags().StringSliceVar(&watchEvents, "events", []string{}, "Events to watch for (create, modify, delete, rename, chmod)")
	watchCmd.Flags().BoolVar(&watchRecursive, "recursive", false, "Watch subdirectories recursively")
	watchCmd.Flags().BoolVarP(&watchFollowLinks, "follow-links", "L", false, "Follow symbolic links when registering subdirectories")
	watchCmd.Flags().IntVar(&watchMaxDepth, "max-depth", 0, "Maximum depth of registered subdirectories (0 for unlimited)")
	watchCmd.Flags().StringVar(&watchFormat, "format", "", "Format string for output ({event} plus the find placeholders)")
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "File pattern to match (e.g., *.go)")
	watchCmd.Flags().StringVar(&watchIgnore, "ignore", "", "File pattern to ignore")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "Duration to watch before exiting (e.g., 1h, 30m)")
	watchCmd.Flags().BoolVar(&watchIncludeHidden, "include-hidden", false, "Include hidden files and directories")
}
