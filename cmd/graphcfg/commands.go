package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/c360/graphcfg/config"
	"github.com/c360/graphcfg/errors"
	"github.com/c360/graphcfg/graph"
	"github.com/c360/graphcfg/store"
	"github.com/c360/graphcfg/template"
	"github.com/c360/graphcfg/value"
)

// parseArgs decodes the -args JSON dict: an object mapping argument
// names to tagged values. Names are sorted so the resulting dict is
// deterministic.
func parseArgs(argsJSON string) (value.TaggedValue, error) {
	if argsJSON == "" {
		return value.Dict(), nil
	}

	var raw map[string]value.TaggedValue
	if err := json.Unmarshal([]byte(argsJSON), &raw); err != nil {
		return value.TaggedValue{}, fmt.Errorf("parse -args: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]value.Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, value.Field{Name: name, Value: raw[name]})
	}
	return value.Dict(fields...), nil
}

// loadTemplateFile reads a stored-template JSON document from disk
func loadTemplateFile(path string) (*store.StoredTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template file: %w", err)
	}
	var tpl store.StoredTemplate
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse template file %s: %w", path, err)
	}
	return &tpl, nil
}

// writeOutput writes expansion output to -out, or stdout when unset
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func runExpand(ctx context.Context, cfg *config.Config, logger *slog.Logger, cliCfg *CLIConfig) error {
	args, err := parseArgs(cliCfg.ArgsJSON)
	if err != nil {
		return err
	}

	var out []byte
	var errs []error

	switch {
	case cliCfg.File != "":
		tpl, err := loadTemplateFile(cliCfg.File)
		if err != nil {
			return err
		}
		merged := value.Dict(append(append([]value.Field{}, tpl.Defaults...), args.Fields()...)...)
		out, errs = template.Expand(merged, tpl.Template)
	case cliCfg.TemplateID != "":
		st, _, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		out, errs = st.Expand(ctx, cliCfg.TemplateID, args)
	default:
		return fmt.Errorf("expand needs -id or -file")
	}

	if len(errs) > 0 {
		for _, e := range errs {
			logger.Error("expansion error", "error", e)
		}
		return fmt.Errorf("expansion failed with %d errors", len(errs))
	}

	logger.Info("template expanded", "bytes", len(out))
	return writeOutput(cliCfg.OutPath, out)
}

func runValidate(cliCfg *CLIConfig) error {
	if cliCfg.File == "" {
		return fmt.Errorf("validate needs -file")
	}

	data, err := os.ReadFile(cliCfg.File)
	if err != nil {
		return fmt.Errorf("read graph description: %w", err)
	}

	cfg, err := graph.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("decode graph description: %w", err)
	}

	if errs := graph.Lint(cfg); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("validation error", "error", e)
		}
		return fmt.Errorf("graph description has %d problems", len(errs))
	}

	slog.Info("graph description is valid",
		"nodes", len(cfg.Nodes),
		"inputs", len(cfg.InputStreams),
		"outputs", len(cfg.OutputStreams))
	return nil
}

func runPut(ctx context.Context, cfg *config.Config, logger *slog.Logger, cliCfg *CLIConfig) error {
	if cliCfg.File == "" {
		return fmt.Errorf("put needs -file")
	}

	tpl, err := loadTemplateFile(cliCfg.File)
	if err != nil {
		return err
	}
	if cliCfg.TemplateID != "" {
		tpl.ID = cliCfg.TemplateID
	}

	st, _, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	err = st.Create(ctx, tpl)
	if stderrors.Is(err, errors.ErrTemplateExists) {
		current, getErr := st.Get(ctx, tpl.ID)
		if getErr != nil {
			return getErr
		}
		tpl.Version = current.Version
		err = st.Update(ctx, tpl)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s version %d\n", tpl.ID, tpl.Version)
	return nil
}

func runList(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, _, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	tpls, err := st.List(ctx)
	if err != nil {
		return err
	}

	for _, tpl := range tpls {
		fmt.Printf("%s\tv%d\t%s\t%s\n",
			tpl.ID, tpl.Version, tpl.UpdatedAt.Format("2006-01-02 15:04:05"), tpl.Description)
	}
	logger.Info("templates listed", "count", len(tpls))
	return nil
}

func runDelete(ctx context.Context, cfg *config.Config, logger *slog.Logger, cliCfg *CLIConfig) error {
	if cliCfg.TemplateID == "" {
		return fmt.Errorf("delete needs -id")
	}

	st, _, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	return st.Delete(ctx, cliCfg.TemplateID)
}
