package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	walkdir "github.com/TFMV/walkdir/internal/walk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile string
	version = "0.2.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "walkdir [options] [path]",
	Short: "Walk a directory tree",
	Long: `walkdir lists a directory tree depth first, one entry per line.

Symbolic links are listed but not followed unless --follow-links is given;
links that lead back into a directory being walked are reported as loops
and skipped.

Examples:
  walkdir /etc
  walkdir --follow-links --max-depth=2 /srv
  walkdir --sort --format=tree ./src
  walkdir --format=json --stats /var/log`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Verbose, cfg.Silent)
		defer logger.Sync() //nolint:errcheck
		return runWalk(cmd.OutOrStdout(), cmd.ErrOrStderr(), root, cfg, logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.walkdir.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().Bool("silent", false, "Disable all output except errors")

	rootCmd.Flags().BoolP("follow-links", "L", false, "Follow symbolic links")
	rootCmd.Flags().Int("min-depth", 0, "Do not list entries shallower than this depth")
	rootCmd.Flags().Int("max-depth", -1, "Do not descend deeper than this depth (-1 for unlimited)")
	rootCmd.Flags().BoolP("sort", "s", false, "List siblings in name order")
	rootCmd.Flags().String("format", "text", "Output format (text|json|yaml|tree)")
	rootCmd.Flags().String("error-mode", "continue", "Error handling mode (continue|stop)")
	rootCmd.Flags().Bool("stats", false, "Print a summary when the walk ends")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("silent", rootCmd.PersistentFlags().Lookup("silent"))
	viper.BindPFlag("follow-links", rootCmd.Flags().Lookup("follow-links"))
	viper.BindPFlag("min-depth", rootCmd.Flags().Lookup("min-depth"))
	viper.BindPFlag("max-depth", rootCmd.Flags().Lookup("max-depth"))
	viper.BindPFlag("sort", rootCmd.Flags().Lookup("sort"))
	viper.BindPFlag("format", rootCmd.Flags().Lookup("format"))
	viper.BindPFlag("error-mode", rootCmd.Flags().Lookup("error-mode"))
	viper.BindPFlag("stats", rootCmd.Flags().Lookup("stats"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".walkdir" (without extension).
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".walkdir")
		}
	}

	viper.SetEnvPrefix("WALKDIR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger picks the log level from the verbosity flags.
func newLogger(verbose, silent bool) *zap.Logger {
	switch {
	case verbose:
		return walkdir.NewLogger(walkdir.LogLevelDebug)
	case silent:
		return walkdir.NewLogger(walkdir.LogLevelError)
	default:
		return walkdir.NewLogger(walkdir.LogLevelWarn)
	}
}

// entryRecord is the json and yaml shape of one listed entry.
type entryRecord struct {
	Path    string `json:"path" yaml:"path"`
	Depth   int    `json:"depth" yaml:"depth"`
	Type    string `json:"type" yaml:"type"`
	Symlink bool   `json:"symlink,omitempty" yaml:"symlink,omitempty"`
	Size    int64  `json:"size" yaml:"size"`
}

func newEntryRecord(ent *walkdir.Entry, logger *zap.Logger) entryRecord {
	rec := entryRecord{
		Path:    ent.Path(),
		Depth:   ent.Depth(),
		Type:    "unknown",
		Symlink: ent.PathIsSymlink(),
	}
	if t, err := ent.FileType(); err == nil {
		rec.Type = t.String()
	}
	if info, err := ent.Info(); err == nil {
		rec.Size = info.Size()
	} else {
		logger.Debug("no metadata", zap.String("path", ent.Path()), zap.Error(err))
	}
	return rec
}

// runWalk lists root according to cfg. Entries go to out; walk errors and
// the summary go to errOut.
func runWalk(out, errOut io.Writer, root string, cfg *Config, logger *zap.Logger) error {
	w := walkdir.New(root).
		FollowLinks(cfg.FollowLinks).
		MaxDepth(cfg.MaxDepth).
		MinDepth(cfg.MinDepth).
		Logger(logger)
	if cfg.Sort {
		w.SortByName()
	}

	var stats walkdir.Stats
	stats.Start()
	report := func(err error) error {
		if cfg.ErrorMode == "stop" {
			return err
		}
		if werr, ok := walkdir.AsError(err); ok && werr.IsLoop() {
			logger.Warn("skipping link loop",
				zap.String("path", werr.Path()),
				zap.String("ancestor", werr.LoopAncestor()))
		}
		fmt.Fprintln(errOut, err)
		return nil
	}

	var err error
	if cfg.Format == "tree" {
		err = printTree(out, walkdir.NewEvents(w.Iter()), &stats, report)
	} else {
		err = printList(out, w, cfg.Format, &stats, report, logger)
	}
	if err != nil {
		return err
	}

	if cfg.Stats {
		fmt.Fprintf(errOut, "%d entries (%d dirs, %d files, %d symlinks, %d other), %d errors (%d loops), max depth %d, %s\n",
			stats.Entries, stats.Dirs, stats.Files, stats.Symlinks, stats.Other,
			stats.Errors(), stats.Loops, stats.MaxDepth, stats.ElapsedTime)
	}
	return nil
}

func printList(out io.Writer, w *walkdir.WalkDir, format string, stats *walkdir.Stats, report func(error) error, logger *zap.Logger) error {
	var records []entryRecord
	enc := json.NewEncoder(out)

	for ent, err := range w.All() {
		stats.Observe(ent, err)
		if err != nil {
			if rerr := report(err); rerr != nil {
				return rerr
			}
			continue
		}
		switch format {
		case "json":
			if err := enc.Encode(newEntryRecord(ent, logger)); err != nil {
				return fmt.Errorf("failed to write entry: %w", err)
			}
		case "yaml":
			records = append(records, newEntryRecord(ent, logger))
		default:
			fmt.Fprintln(out, ent.Path())
		}
	}

	if format == "yaml" {
		ye := yaml.NewEncoder(out)
		ye.SetIndent(2)
		if err := ye.Encode(records); err != nil {
			return fmt.Errorf("failed to write entries: %w", err)
		}
		return ye.Close()
	}
	return nil
}

// printTree draws the walk as an indented tree, directories suffixed with a
// separator.
func printTree(out io.Writer, ev *walkdir.Events, stats *walkdir.Stats, report func(error) error) error {
	defer ev.Close()
	for ev.Next() {
		if err := ev.Err(); err != nil {
			stats.Observe(nil, err)
			if rerr := report(err); rerr != nil {
				return rerr
			}
			continue
		}
		e := ev.Event()
		if e.Kind == walkdir.EventExit {
			continue
		}
		stats.Observe(e.Entry, nil)

		name := e.Entry.Name()
		if e.Entry.Depth() == 0 {
			name = e.Entry.Path()
		}
		if e.Kind == walkdir.EventEnter {
			name += string(os.PathSeparator)
		} else if e.Entry.PathIsSymlink() {
			if target, err := os.Readlink(e.Entry.Path()); err == nil {
				name += " -> " + target
			}
		}
		fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", e.Entry.Depth()), name)
	}
	return nil
}
