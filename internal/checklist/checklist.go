// Package checklist описывает шаблон чек-листа инспекции и создаёт по нему пустые формы.
package checklist

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"QAChecklist/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTemplate []byte

type ItemTemplate struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type AreaTemplate struct {
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	Weight float64        `yaml:"weight"`
	Items  []ItemTemplate `yaml:"items"`
}

type Template struct {
	Areas []AreaTemplate `yaml:"areas"`
}

// Default возвращает встроенный шаблон.
func Default() (*Template, error) {
	return Parse(defaultTemplate)
}

// Load читает шаблон из файла.
func Load(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse checklist template: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Template) validate() error {
	if len(t.Areas) == 0 {
		return errors.New("checklist template has no areas")
	}
	seen := map[string]bool{}
	for _, a := range t.Areas {
		if a.ID == "" {
			return errors.New("checklist area without id")
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate checklist area %q", a.ID)
		}
		seen[a.ID] = true
		items := map[string]bool{}
		for _, it := range a.Items {
			if it.ID == "" || items[it.ID] {
				return fmt.Errorf("invalid or duplicate item id %q in area %q", it.ID, a.ID)
			}
			items[it.ID] = true
		}
	}
	return nil
}

// NewReport создаёт пустую форму: все пункты в статусе unset, одна пустая запись wins.
func (t *Template) NewReport(info model.InspectorInfo) model.ReportData {
	areas := make([]model.InspectionArea, 0, len(t.Areas))
	for _, a := range t.Areas {
		items := make([]model.InspectionItem, 0, len(a.Items))
		for _, it := range a.Items {
			items = append(items, model.InspectionItem{
				ID:     it.ID,
				Name:   it.Name,
				Status: model.StatusUnset,
				Photos: []string{},
			})
		}
		areas = append(areas, model.InspectionArea{ID: a.ID, Name: a.Name, Weight: a.Weight, Items: items})
	}
	return model.ReportData{
		InspectorInfo: info,
		Areas:         areas,
		Wins:          []model.WinsEntry{{ID: "1", Description: ""}},
	}
}
