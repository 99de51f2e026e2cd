package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/fieldscout/internal/domain/model"
)

type schemaImportCmd struct {
	Files []string `arg:"" help:"Schema files. JSON is read as YAML." type:"existingfile"`
}

// readSchema decodes one schema document using its JSON field names.
func readSchema(path string) (model.Schema, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return model.Schema{}, fmt.Errorf("%s: %w", path, err)
	}
	var schema model.Schema
	if err := k.UnmarshalWithConf("", &schema, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return model.Schema{}, fmt.Errorf("%s: %w", path, err)
	}
	schema.ID = 0
	if err := schema.Validate(); err != nil {
		return model.Schema{}, fmt.Errorf("%s: %w", path, err)
	}
	return schema, nil
}

func (s *schemaImportCmd) Run(g *globalCmd) error {
	schemas := make([]model.Schema, 0, len(s.Files))
	for _, path := range s.Files {
		schema, err := readSchema(path)
		if err != nil {
			return err
		}
		schemas = append(schemas, schema)
	}

	ctx := context.Background()
	svc, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	for i := range schemas {
		if err := svc.Store().CreateSchema(ctx, &schemas[i]); err != nil {
			return fmt.Errorf("schema %d: %w", schemas[i].Year, err)
		}
		fmt.Fprintf(g.Out, "imported schema %d (id %d): %d auto, %d teleop statistics\n",
			schemas[i].Year, schemas[i].ID, len(schemas[i].Auto), len(schemas[i].Teleop))
	}
	return nil
}

type schemaLsCmd struct{}

func (s *schemaLsCmd) Run(g *globalCmd) error {
	ctx := context.Background()
	svc, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	schemas, err := svc.ListSchemas(ctx)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(g.Out)
	t.AppendHeader(table.Row{"ID", "Year", "Phase", "Statistic", "Type"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 2, AutoMerge: true},
		{Number: 3, AutoMerge: true},
	})
	for _, schema := range schemas {
		for _, d := range schema.Auto {
			t.AppendRow(table.Row{schema.ID, schema.Year, "auto", d.Name, d.Type})
		}
		for _, d := range schema.Teleop {
			t.AppendRow(table.Row{schema.ID, schema.Year, "teleop", d.Name, d.Type})
		}
		t.AppendSeparator()
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
