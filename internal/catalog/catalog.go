// Package catalog reads game definitions from YAML catalogue files.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"minigame-service/internal/domain"
	"minigame-service/internal/game"
)

//go:embed builtin.yaml
var builtinYAML []byte

type document struct {
	Games []domain.Game `yaml:"games"`
}

// Loader serves definitions parsed from one or more catalogue files.
type Loader struct {
	games map[string]domain.Game
	ids   []string
}

// Parse decodes a catalogue document. Unknown keys are rejected so typos in
// authored data surface at load time.
func Parse(data []byte) ([]domain.Game, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	return doc.Games, nil
}

// New validates every definition and indexes them by id.
func New(games []domain.Game) (*Loader, error) {
	l := &Loader{games: make(map[string]domain.Game, len(games))}
	var errs []error
	for _, def := range games {
		if _, dup := l.games[def.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate game id %q", domain.ErrInvalidGame, def.ID))
			continue
		}
		if err := game.Validate(def); err != nil {
			errs = append(errs, err)
			continue
		}
		l.games[def.ID] = def
		l.ids = append(l.ids, def.ID)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sort.Strings(l.ids)
	return l, nil
}

// Load reads a catalogue file, or every *.yaml/*.yml file in a directory.
func Load(path string) (*Loader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		files = files[:0]
		for _, entry := range entries {
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if !entry.IsDir() && (ext == ".yaml" || ext == ".yml") {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(files)
	}

	var all []domain.Game
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		games, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		all = append(all, games...)
	}
	return New(all)
}

// Builtin returns the sample catalogue compiled into the binary.
func Builtin() (*Loader, error) {
	games, err := Parse(builtinYAML)
	if err != nil {
		return nil, err
	}
	return New(games)
}

func (l *Loader) LoadGame(_ context.Context, gameID string) (domain.Game, error) {
	if def, ok := l.games[gameID]; ok {
		return def, nil
	}
	return domain.Game{}, fmt.Errorf("%w: %s", domain.ErrGameNotFound, gameID)
}

func (l *Loader) ListGameIDs(_ context.Context) ([]string, error) {
	return append([]string(nil), l.ids...), nil
}

// Games returns every definition in id order.
func (l *Loader) Games() []domain.Game {
	out := make([]domain.Game, 0, len(l.ids))
	for _, id := range l.ids {
		out = append(out, l.games[id])
	}
	return out
}
