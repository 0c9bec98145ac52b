package main

import (
	"fmt"
	"os"
	"strconv"

	"mediaprops/internal/config"
)

type options struct {
	cfg        config.Config
	configPath string
	recursive  bool
	help       bool
	initConfig bool
	command    string
	args       []string
}

// parseArgs parses command-line arguments and loads configuration.
// Priority: CLI flags > config file > defaults
func parseArgs(args []string) (options, error) {
	var opts options

	if len(args) == 0 {
		opts.help = true
		return opts, fmt.Errorf("no command given")
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			opts.help = true
			return opts, nil
		}
		if arg == "--init-config" {
			opts.initConfig = true
			return opts, nil
		}
	}

	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--config requires a path argument")
			}
			opts.configPath = args[i+1]
			break
		}
	}

	cfg, err := config.LoadConfigFile(opts.configPath)
	if err != nil {
		return opts, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.configPath == "" {
		opts.configPath = config.FindConfigFile()
	}

	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--verbose", "-v":
			cfg.Verbose = true

		case "--recursive", "-r":
			opts.recursive = true

		case "--parallel", "-p":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--parallel requires a number argument")
			}
			i++
			var jobs int
			if _, err := fmt.Sscanf(args[i], "%d", &jobs); err != nil {
				return opts, fmt.Errorf("invalid parallel jobs value: %s", args[i])
			}
			cfg.ParallelJobs = jobs

		case "--engine", "-e":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--engine requires an engine name")
			}
			i++
			cfg.Engine = args[i]

		case "--config", "-c":
			i++

		// Command flags are passed through to the command.
		case "--required", "--yaml":
			positional = append(positional, arg)

		case "--default":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--default requires a value")
			}
			positional = append(positional, arg, args[i+1])
			i++

		case "--":
			positional = append(positional, args[i+1:]...)
			i = len(args)

		default:
			// Negative numbers are values, so "set f year -3" reaches the
			// range check instead of failing here.
			if _, err := strconv.Atoi(arg); err != nil && len(arg) > 1 && arg[0] == '-' {
				return opts, fmt.Errorf("unknown flag: %s", arg)
			}
			positional = append(positional, arg)
		}
	}

	if len(positional) == 0 {
		return opts, fmt.Errorf("no command given")
	}

	opts.cfg = cfg
	opts.command = positional[0]
	opts.args = positional[1:]
	return opts, nil
}

// initConfigFile creates a new config file with default values
func initConfigFile() error {
	path := config.GetDefaultConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists at: %s\n", path)
		fmt.Println("Delete it first if you want to recreate it.")
		return nil
	}

	cfg := config.DefaultConfig()

	if err := config.SaveConfigFile(cfg, path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Created default config file at: %s\n", path)
	fmt.Println("\nYou can now edit this file to customize your settings.")
	fmt.Println("Available options:")
	fmt.Println("  engine: taglib or memory (memory keeps nothing between runs)")
	fmt.Println("  parallel_jobs: 1-32 (files processed at once by batch commands)")
	fmt.Println("  extensions: file extensions picked up when a directory is given")
	fmt.Println("  library_root: directory served by mediaprops-web")
	fmt.Println("  web_port: port for mediaprops-web")
	fmt.Println("  verbose: true/false (enable detailed logging)")

	return nil
}

// printUsage displays the help message
func printUsage() {
	fmt.Println("mediaprops - Read and edit metadata properties of media files")
	fmt.Println()
	fmt.Println("Usage: mediaprops [options] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  props                                   List supported properties")
	fmt.Println("  get <file> <prop> [--default v|--required]")
	fmt.Println("                                          Print a property value")
	fmt.Println("  has <file> <prop>                       Print whether a property is set")
	fmt.Println("  set <file> <prop> <value>               Set a property")
	fmt.Println("  clear <file> <prop>...                  Clear properties")
	fmt.Println("  clear-all <file|dir>...                 Clear every property of many files")
	fmt.Println("  copy <src> <dst> <prop>...              Copy properties between files")
	fmt.Println("  dump <file> [--yaml]                    Print every set property")
	fmt.Println("  apply <file> <values.yaml>              Write properties from a YAML file")
	fmt.Println("  is-media <file>                         Print whether the file is a media file")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose              Show detailed output")
	fmt.Println("  -e, --engine <name>        Property engine: taglib or memory (default: taglib)")
	fmt.Println("  -p, --parallel <n>         Files processed at once by clear-all (1-32, default: 4)")
	fmt.Println("  -r, --recursive            Descend into subdirectories for clear-all")
	fmt.Println("  -c, --config <path>        Path to config file")
	fmt.Println("  -h, --help                 Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  --init-config              Create a default config file")
	fmt.Println()
	fmt.Println("Config file locations (checked in order):")
	fmt.Println("  ./mediaprops.yaml")
	fmt.Println("  ~/.config/mediaprops/config.yaml")
	fmt.Println("  ~/.mediaprops.yaml")
	fmt.Println()
	fmt.Println("Properties can be named by identifier or display name, in any case:")
	fmt.Println("  TITLE, title, sub_title, \"Audio Sample Rate\"")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  mediaprops get clip.mp4 title")
	fmt.Println("  mediaprops set clip.mp4 year 2021")
	fmt.Println("  mediaprops copy a.mp3 b.mp3 author comment")
	fmt.Println("  mediaprops -r -p 8 clear-all ~/Music/inbox")
	fmt.Println("  mediaprops dump --yaml clip.mp4 > clip.yaml")
}
