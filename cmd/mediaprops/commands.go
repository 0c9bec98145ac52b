package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/disiqueira/gotree/v3"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"mediaprops/internal/batch"
	"mediaprops/internal/config"
	"mediaprops/internal/logger"
	"mediaprops/internal/mediaprops"
	"mediaprops/internal/progress"
	"mediaprops/pkg/utils"
)

type app struct {
	media     *mediaprops.Media
	cfg       config.Config
	log       *logger.Logger
	out       io.Writer
	recursive bool
	// progressOut receives the clear-all progress bar; nil disables it.
	progressOut io.Writer
}

const (
	getUsage  = "get <file> <prop> [--default v|--required]"
	dumpUsage = "dump <file> [--yaml]"
)

type command struct {
	usage string
	min   int
	max   int // -1 means unbounded
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"props":     {"props", 0, 0, (*app).props},
	"get":       {getUsage, 2, 4, (*app).get},
	"has":       {"has <file> <prop>", 2, 2, (*app).has},
	"set":       {"set <file> <prop> <value>", 3, 3, (*app).set},
	"clear":     {"clear <file> <prop>...", 2, -1, (*app).clear},
	"clear-all": {"clear-all <file|dir>...", 1, -1, (*app).clearAll},
	"copy":      {"copy <src> <dst> <prop>...", 3, -1, (*app).copyProps},
	"dump":      {dumpUsage, 1, 2, (*app).dump},
	"apply":     {"apply <file> <values.yaml>", 2, 2, (*app).apply},
	"is-media":  {"is-media <file>", 1, 1, (*app).isMedia},
}

func (a *app) run(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command: %s (see --help)", name)
	}
	if len(args) < cmd.min || (cmd.max >= 0 && len(args) > cmd.max) {
		return fmt.Errorf("usage: mediaprops %s", cmd.usage)
	}
	return cmd.run(a, ctx, args)
}

func lookup(name string) (*mediaprops.Descriptor, error) {
	d, ok := mediaprops.PropertyByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown property %q (see 'mediaprops props')", name)
	}
	return d, nil
}

func lookupAll(names []string) ([]*mediaprops.Descriptor, error) {
	descs := make([]*mediaprops.Descriptor, 0, len(names))
	for _, n := range names {
		d, err := lookup(n)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func (a *app) props(ctx context.Context, args []string) error {
	tree := gotree.New("properties")
	text := tree.Add(mediaprops.KindString.String())
	numbers := tree.Add(mediaprops.KindUint.String())

	for _, d := range mediaprops.All() {
		label := fmt.Sprintf("%-22s %s (#%d)", d.Ident(), d.Name(), d.Ordinal())
		if d.Kind() == mediaprops.KindString {
			text.Add(label)
		} else {
			numbers.Add(label)
		}
	}

	fmt.Fprint(a.out, tree.Print())
	return nil
}

func (a *app) get(ctx context.Context, args []string) error {
	file, name := args[0], args[1]
	d, err := lookup(name)
	if err != nil {
		return err
	}

	var (
		required bool
		def      *string
	)
	switch rest := args[2:]; {
	case len(rest) == 0:
	case len(rest) == 1 && rest[0] == "--required":
		required = true
	case len(rest) == 2 && rest[0] == "--default":
		def = &rest[1]
	default:
		return fmt.Errorf("usage: mediaprops %s", getUsage)
	}

	abs, err := mediaprops.Resolve(file)
	if err != nil {
		return err
	}
	v, ok, err := a.media.ReadValue(abs, d)
	if err != nil {
		return err
	}
	if !ok {
		if required {
			return &mediaprops.PropertyAbsentError{Path: abs, Property: d}
		}
		if def != nil {
			fmt.Fprintln(a.out, *def)
		}
		return nil
	}

	fmt.Fprintln(a.out, mediaprops.FormatValue(v))
	return nil
}

func (a *app) has(ctx context.Context, args []string) error {
	d, err := lookup(args[1])
	if err != nil {
		return err
	}
	ok, err := a.media.Has(args[0], d)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, ok)
	return nil
}

func (a *app) set(ctx context.Context, args []string) error {
	d, err := lookup(args[1])
	if err != nil {
		return err
	}
	v, err := mediaprops.ParseValue(d, args[2])
	if err != nil {
		return err
	}
	if err := a.media.WriteValue(args[0], d, v); err != nil {
		return err
	}
	a.log.Debug("Set %s on %s", d.Ident(), args[0])
	return nil
}

func (a *app) clear(ctx context.Context, args []string) error {
	descs, err := lookupAll(args[1:])
	if err != nil {
		return err
	}
	return a.media.ClearMany(args[0], descs...)
}

func (a *app) clearAll(ctx context.Context, args []string) error {
	files, err := utils.ExpandTargets(args, a.recursive, a.cfg.HasExtension)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		a.log.Warn("No media files found")
		return nil
	}

	var bar *progress.Bar
	if a.progressOut != nil && len(files) > 1 {
		bar = progress.New(a.progressOut, "clear-all", len(files))
		a.log.SetProgressBar(true)
	}

	stats, runErr := batch.Run(ctx, files, a.cfg.ParallelJobs, func(ctx context.Context, path string) error {
		return a.media.ClearAll(path)
	}, batch.Hooks{
		OnProgress: func(path string, err error) {
			if err != nil {
				a.log.Debug("clear-all %s: %v", path, err)
			}
			if bar != nil {
				bar.Increment(err != nil)
			}
		},
	})

	if bar != nil {
		bar.Finish()
		a.log.SetProgressBar(false)
	}

	a.log.Info("Cleared %d of %d files", stats.Succeeded, stats.Total)
	if runErr != nil {
		return fmt.Errorf("clear-all interrupted, %d files not processed: %w", stats.Skipped, runErr)
	}
	return stats.Err(files)
}

func (a *app) copyProps(ctx context.Context, args []string) error {
	src, dst := args[0], args[1]
	descs, err := lookupAll(args[2:])
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, d := range descs {
		if err := a.media.Copy(src, dst, d); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (a *app) dump(ctx context.Context, args []string) error {
	file := args[0]
	asYAML := false
	if len(args) == 2 {
		if args[1] != "--yaml" {
			return fmt.Errorf("usage: mediaprops %s", dumpUsage)
		}
		asYAML = true
	}

	props, err := a.media.ReadAll(file)
	if err != nil {
		return err
	}

	if asYAML {
		enc := yaml.NewEncoder(a.out)
		defer enc.Close()
		return enc.Encode(props)
	}

	tree := gotree.New(file)
	for _, d := range props.Descriptors() {
		v, _ := props.Value(d)
		tree.Add(fmt.Sprintf("%s: %s", d.Ident(), mediaprops.FormatValue(v)))
	}
	fmt.Fprint(a.out, tree.Print())
	return nil
}

// apply reads {prop: value} pairs from YAML. A null value clears the property.
func (a *app) apply(ctx context.Context, args []string) error {
	file, valuesPath := args[0], args[1]

	data, err := os.ReadFile(valuesPath)
	if err != nil {
		return fmt.Errorf("failed to read values file %s: %w", valuesPath, err)
	}
	var raw map[string]*string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse values file %s: %w", valuesPath, err)
	}

	values := mediaprops.NewPropertyMap()
	var clears []*mediaprops.Descriptor
	for name, text := range raw {
		d, err := lookup(name)
		if err != nil {
			return err
		}
		if text == nil {
			clears = append(clears, d)
			continue
		}
		v, err := mediaprops.ParseValue(d, *text)
		if err != nil {
			return err
		}
		if err := values.Set(d, v); err != nil {
			return err
		}
	}

	var result *multierror.Error
	if values.Len() > 0 {
		if err := a.media.WriteAll(file, values); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if len(clears) > 0 {
		if err := a.media.ClearMany(file, clears...); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	a.log.Info("Applied %d properties and cleared %d on %s", values.Len(), len(clears), file)
	return nil
}

func (a *app) isMedia(ctx context.Context, args []string) error {
	ok, err := a.media.IsMediaFile(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, ok)
	return nil
}
