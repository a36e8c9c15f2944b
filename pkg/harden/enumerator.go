package harden

import (
	"context"

	"github.com/spf13/afero"
)

const DefaultUsersDir = "/Users"

// DefaultExcludedEntries are listed under the users directory but are not
// accounts.
var DefaultExcludedEntries = []string{"Shared", ".localized"}

// EntityEnumerator lists the principals a per-entity rule fans out over.
// Implementations re-read their source on every call.
type EntityEnumerator interface {
	List(ctx context.Context) ([]string, error)
}

// DirEnumerator lists the entries of a directory by name, in listing order,
// without following symlinks.
type DirEnumerator struct {
	fs      afero.Fs
	dir     string
	exclude map[string]struct{}
}

func NewDirEnumerator(fs afero.Fs, dir string, exclude []string) *DirEnumerator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = DefaultUsersDir
	}
	if exclude == nil {
		exclude = DefaultExcludedEntries
	}
	set := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		set[name] = struct{}{}
	}
	return &DirEnumerator{
		fs:      fs,
		dir:     dir,
		exclude: set,
	}
}

func (e *DirEnumerator) List(ctx context.Context) ([]string, error) {
	f, err := e.fs.Open(e.dir)
	if err != nil {
		return nil, NewHardenError(ErrorTypeIO, "cannot open users directory", e.dir).Wrap(err)
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, NewHardenError(ErrorTypeIO, "cannot list users directory", e.dir).Wrap(err)
	}

	entities := make([]string, 0, len(names))
	for _, name := range names {
		if _, skip := e.exclude[name]; skip {
			continue
		}
		entities = append(entities, name)
	}
	return entities, nil
}

// CommandEnumerator treats every non-empty stdout line of a discovery command
// as one entity.
type CommandEnumerator struct {
	probe   Prober
	program string
	args    []string
}

func NewCommandEnumerator(probe Prober, program string, args []string) *CommandEnumerator {
	return &CommandEnumerator{
		probe:   probe,
		program: program,
		args:    args,
	}
}

func (e *CommandEnumerator) List(ctx context.Context) ([]string, error) {
	out, err := e.probe.CommandOutput(ctx, e.program, e.args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}
