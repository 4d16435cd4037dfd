package cmd

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	walkdir "github.com/TFMV/walkdir/internal/walk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var findCmd = &cobra.Command{
	Use:   "find [options] <path>",
	Short: "Find entries with advanced filtering",
	Long: `Find entries with advanced filtering capabilities.
Supports pattern matching, type, time and size constraints.
Can execute commands for each matched entry or format output using templates.

Template placeholders: {} {base} {dir} {depth} {size} {time} {type},
and {""} {"base"} {"dir"} for quoted values.

Examples:
  walkdir find /path/to/search --name="*.go"
  walkdir find /path/to/search --regex=".*\\.txt$" --larger-than=1MB
  walkdir find /path/to/search --type=d --max-depth=2
  walkdir find /path/to/search --exec="echo Processing: {}"
  walkdir find /path/to/search --format="{depth} {base} ({size} bytes)"
  walkdir find /path/to/search --older-than=7d --follow-links`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(viper.GetBool("verbose"), viper.GetBool("silent"))
		defer logger.Sync() //nolint:errcheck

		opts, err := findOptionsFromConfig(viper.GetViper())
		if err != nil {
			return err
		}
		opts.Logger = logger
		return runFind(cmd.Context(), args[0], opts)
	},
}

func init() {
	rootCmd.AddCommand(findCmd)

	// Pattern matching options
	findCmd.Flags().StringP("name", "n", "", "Match by file name (supports wildcards)")
	findCmd.Flags().StringP("path", "p", "", "Match by path (supports wildcards)")
	findCmd.Flags().String("ignore", "", "Skip paths matching this pattern")
	findCmd.Flags().StringP("regex", "r", "", "Match by regular expression")
	findCmd.Flags().StringSliceP("type", "t", []string{}, "Match by type: f (file), d (directory), l (symlink), o (other)")

	// Time-based filtering
	findCmd.Flags().String("older-than", "", "Entries older than this duration (e.g. 7d, 24h, 30m)")
	findCmd.Flags().String("newer-than", "", "Entries newer than this duration (e.g. 7d, 24h, 30m)")

	// Size-based filtering
	findCmd.Flags().String("larger-than", "", "Entries larger than this size (e.g. 1MB, 500KB)")
	findCmd.Flags().String("smaller-than", "", "Entries smaller than this size (e.g. 1MB, 500KB)")

	// Execution options
	findCmd.Flags().String("exec", "", "Command to execute for each match")
	findCmd.Flags().String("format", "", "Format string for output")

	// Traversal options
	findCmd.Flags().Int("min-depth", 0, "Minimum depth to report")
	findCmd.Flags().IntP("max-depth", "d", 0, "Maximum directory depth to traverse (0 for unlimited)")
	findCmd.Flags().BoolP("follow-links", "L", false, "Follow symbolic links")
	findCmd.Flags().Bool("include-hidden", false, "Include hidden files and directories")
	findCmd.Flags().BoolP("sort", "s", false, "Visit siblings in name order")

	// Bind flags to viper
	for _, name := range []string{
		"name", "path", "ignore", "regex", "type",
		"older-than", "newer-than", "larger-than", "smaller-than",
		"exec", "format",
		"min-depth", "max-depth", "follow-links", "include-hidden", "sort",
	} {
		viper.BindPFlag("find."+name, findCmd.Flags().Lookup(name))
	}
}

// findOptionsFromConfig builds FindOptions from the find.* keys of v.
func findOptionsFromConfig(v *viper.Viper) (walkdir.FindOptions, error) {
	opts := walkdir.FindOptions{
		NamePattern:    v.GetString("find.name"),
		PathPattern:    v.GetString("find.path"),
		IgnorePattern:  v.GetString("find.ignore"),
		MinDepth:       v.GetInt("find.min-depth"),
		MaxDepth:       v.GetInt("find.max-depth"),
		FollowSymlinks: v.GetBool("find.follow-links"),
		IncludeHidden:  v.GetBool("find.include-hidden"),
		SortByName:     v.GetBool("find.sort"),
	}
	if opts.MinDepth < 0 || opts.MaxDepth < 0 {
		return opts, fmt.Errorf("depth limits must not be negative")
	}
	if opts.MaxDepth > 0 && opts.MinDepth > opts.MaxDepth {
		return opts, fmt.Errorf("min-depth (%d) must not exceed max-depth (%d)", opts.MinDepth, opts.MaxDepth)
	}

	// Parse regex pattern
	if regexStr := v.GetString("find.regex"); regexStr != "" {
		var err error
		opts.RegexPattern, err = regexp.Compile(regexStr)
		if err != nil {
			return opts, fmt.Errorf("invalid regex pattern: %w", err)
		}
	}

	for _, t := range v.GetStringSlice("find.type") {
		typ, err := parseFileType(t)
		if err != nil {
			return opts, err
		}
		opts.Types = append(opts.Types, typ)
	}

	// Parse time durations
	if olderThanStr := v.GetString("find.older-than"); olderThanStr != "" {
		duration, err := parseDuration(olderThanStr)
		if err != nil {
			return opts, fmt.Errorf("invalid older-than value: %w", err)
		}
		opts.OlderThan = duration
	}

	if newerThanStr := v.GetString("find.newer-than"); newerThanStr != "" {
		duration, err := parseDuration(newerThanStr)
		if err != nil {
			return opts, fmt.Errorf("invalid newer-than value: %w", err)
		}
		opts.NewerThan = duration
	}

	// Parse size constraints
	if largerThanStr := v.GetString("find.larger-than"); largerThanStr != "" {
		size, err := parseSize(largerThanStr)
		if err != nil {
			return opts, fmt.Errorf("invalid larger-than value: %w", err)
		}
		opts.LargerSize = size
	}

	if smallerThanStr := v.GetString("find.smaller-than"); smallerThanStr != "" {
		size, err := parseSize(smallerThanStr)
		if err != nil {
			return opts, fmt.Errorf("invalid smaller-than value: %w", err)
		}
		opts.SmallerSize = size
	}

	return opts, nil
}

func runFind(ctx context.Context, root string, opts walkdir.FindOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// If exec command is specified, use it
	if execCmd := viper.GetString("find.exec"); execCmd != "" {
		return walkdir.FindWithExec(ctx, root, opts, execCmd)
	}

	// If format is specified, use it
	if format := viper.GetString("find.format"); format != "" {
		return walkdir.FindWithFormat(ctx, root, opts, format)
	}

	// Otherwise, use default handler
	return walkdir.Find(ctx, root, opts, nil)
}

// parseFileType maps find(1) style type letters to a FileType.
func parseFileType(s string) (walkdir.FileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "file":
		return walkdir.Regular, nil
	case "d", "dir":
		return walkdir.Dir, nil
	case "l", "symlink":
		return walkdir.Symlink, nil
	case "o", "other":
		return walkdir.Other, nil
	default:
		return 0, fmt.Errorf("unknown type %q (expected f, d, l or o)", s)
	}
}

// parseDuration parses a duration string with support for days (d)
func parseDuration(s string) (time.Duration, error) {
	// Handle days specially
	if strings.HasSuffix(s, "d") {
		days, err := parseFloat(s[:len(s)-1])
		if err != nil {
			return 0, err
		}
		return time.Duration(days * 24 * float64(time.Hour)), nil
	}

	// Use standard duration parsing for other units
	return time.ParseDuration(s)
}

// parseSize parses a size string with support for KB, MB, GB, TB
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(s)

	multiplier := int64(1)

	if strings.HasSuffix(s, "KB") {
		multiplier = 1024
		s = s[:len(s)-2]
	} else if strings.HasSuffix(s, "MB") {
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	} else if strings.HasSuffix(s, "GB") {
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	} else if strings.HasSuffix(s, "TB") {
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	}

	size, err := parseFloat(s)
	if err != nil {
		return 0, err
	}

	return int64(size * float64(multiplier)), nil
}

// parseFloat parses a float from a string
func parseFloat(s string) (float64, error) {
	var value float64
	_, err := fmt.Sscanf(s, "%f", &value)
	return value, err
}
