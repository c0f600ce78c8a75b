package shader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/fsnotify/fsnotify"
)

var (
	// ErrDuplicateShader is returned when loading a key the library already holds.
	ErrDuplicateShader = errors.New("duplicate shader key")

	// ErrLibraryReleased is returned by operations on a released library.
	ErrLibraryReleased = errors.New("shader library released")
)

// Source names a shader source file to load into a Library.
type Source struct {
	// Key is the identifier the loaded shader is looked up by.
	Key string
	// Stage is the pipeline stage the file targets.
	Stage program.ShaderStage
	// Path is the file to read.
	Path string
}

// libraryEntry is one loaded source and its current compiled shader.
type libraryEntry struct {
	source Source
	path   string
	shader Shader
	dirty  bool
}

// processedSource is the CPU-side result of reading and pre-processing one source.
type processedSource struct {
	source       string
	declarations []Annotation
	err          error
}

type library struct {
	mu      *sync.Mutex
	backend program.Backend
	pp      PreProcessor
	opts    []ShaderBuilderOption

	workers   int
	queueSize int
	pool      worker.DynamicWorkerPool

	entries map[string]*libraryEntry
	order   []string

	// retired holds shaders replaced by Reload. Passes may still have them attached, so
	// they are released with the library.
	retired []Shader

	watcher  *fsnotify.Watcher
	onReload func(key string, s Shader)
	released bool
}

// Library owns the shaders compiled from a set of source files. File reads and
// pre-processing run concurrently on a worker pool while compilation stays on the
// calling goroutine, which must own the graphics context.
//
// With Watch running, changed files are flagged dirty and Reload recompiles them. A
// reloaded shader is a new Shader value, so effect passes that resolve it through an
// expression see a different identity and relink on their next apply.
type Library interface {
	// Load reads, pre-processes and compiles the given sources. Either every source is
	// added or, on error, none is.
	//
	// Parameters:
	//   - ctx: cancels the pending file reads
	//   - sources: the sources to load
	//
	// Returns:
	//   - error: a joined error of every failed source, or ErrDuplicateShader
	Load(ctx context.Context, sources ...Source) error

	// Shader returns the current shader for a key.
	//
	// Parameters:
	//   - key: the shader key
	//
	// Returns:
	//   - Shader: the shader, or nil if absent
	//   - bool: true if the key is loaded
	Shader(key string) (Shader, bool)

	// Keys returns the loaded keys in load order.
	//
	// Returns:
	//   - []string: the keys
	Keys() []string

	// Watch starts watching the directories of every loaded source and flags the entries
	// of changed files dirty. Watching stops when ctx is done or the library is released.
	//
	// Parameters:
	//   - ctx: stops the watcher when done
	//
	// Returns:
	//   - error: an error if the watcher could not be created or a directory could not be watched
	Watch(ctx context.Context) error

	// MarkDirty flags a key for recompilation on the next Reload.
	//
	// Parameters:
	//   - key: the shader key
	//
	// Returns:
	//   - bool: false if the key is not loaded
	MarkDirty(key string) bool

	// Dirty returns the keys waiting for Reload, in load order.
	//
	// Returns:
	//   - []string: the dirty keys
	Dirty() []string

	// Reload recompiles every dirty entry. An entry that fails keeps its previous shader and
	// stays dirty. Replaced shaders stay alive until Release, since passes may still hold them.
	//
	// Returns:
	//   - []string: the keys that were replaced
	//   - error: a joined error of every entry that failed
	Reload() ([]string, error)

	// Release stops watching, stops the worker pool and releases every shader the library
	// compiled, including those replaced by Reload.
	Release()
}

var _ Library = &library{}

// NewLibrary creates an empty Library compiling on backend.
//
// Parameters:
//   - backend: the backend shaders are compiled on
//   - opts: a variadic list of LibraryBuilderOption functions
//
// Returns:
//   - Library: the new library
func NewLibrary(backend program.Backend, opts ...LibraryBuilderOption) Library {
	l := &library{
		mu:        &sync.Mutex{},
		backend:   backend,
		workers:   4,
		queueSize: 64,
		entries:   make(map[string]*libraryEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.pp == nil {
		l.pp = NewPreProcessor(backend.ShadingLanguage())
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, 1*time.Second)
	return l
}

// process reads and pre-processes sources on the worker pool.
func (l *library) process(ctx context.Context, sources []Source) []processedSource {
	results := make([]processedSource, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		pp := l.pp.Clone()
		l.pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: src.Path,
			Do: func() (any, error) {
				defer wg.Done()

				if err := ctx.Err(); err != nil {
					results[i].err = err
					return nil, err
				}
				data, err := os.ReadFile(src.Path)
				if err != nil {
					results[i].err = fmt.Errorf("shader %q: %w", src.Key, err)
					return nil, results[i].err
				}
				processed, err := pp.Process(string(data))
				if err != nil {
					results[i].err = fmt.Errorf("shader %q: failed to pre-process %s: %w", src.Key, src.Path, err)
					return nil, results[i].err
				}
				results[i] = processedSource{source: processed, declarations: pp.Declarations()}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return results
}

func (l *library) Load(ctx context.Context, sources ...Source) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return ErrLibraryReleased
	}

	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if _, ok := l.entries[src.Key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateShader, src.Key)
		}
		if _, ok := seen[src.Key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateShader, src.Key)
		}
		seen[src.Key] = struct{}{}
	}

	results := l.process(ctx, sources)
	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	compiled := make([]Shader, 0, len(sources))
	for i, src := range sources {
		s := newShader(l.backend, src.Key, src.Stage, l.opts...)
		if err := s.compile(results[i].source, results[i].declarations); err != nil {
			for _, c := range compiled {
				c.Release()
			}
			return err
		}
		compiled = append(compiled, s)
	}

	for i, src := range sources {
		path, err := filepath.Abs(src.Path)
		if err != nil {
			path = filepath.Clean(src.Path)
		}
		l.entries[src.Key] = &libraryEntry{source: src, path: path, shader: compiled[i]}
		l.order = append(l.order, src.Key)
		if l.watcher != nil {
			if err := l.watcher.Add(filepath.Dir(path)); err != nil {
				log.Printf("[ShaderLibrary] failed to watch %s: %v", filepath.Dir(path), err)
			}
		}
	}
	return nil
}

func (l *library) Shader(key string) (Shader, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	return e.shader, true
}

func (l *library) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.order)
}

func (l *library) Watch(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return ErrLibraryReleased
	}
	if l.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create shader watcher: %w", err)
	}
	dirs := make(map[string]struct{})
	for _, e := range l.entries {
		dirs[filepath.Dir(e.path)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	l.watcher = w

	go l.watch(ctx, w)
	return nil
}

func (l *library) watch(ctx context.Context, w *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			if l.watcher == w {
				l.watcher = nil
			}
			l.mu.Unlock()
			w.Close()
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			l.markPathDirty(filepath.Clean(event.Name))
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("[ShaderLibrary] watcher error: %v", err)
		}
	}
}

func (l *library) markPathDirty(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range l.order {
		e := l.entries[key]
		if e.path == path && !e.dirty {
			e.dirty = true
			log.Printf("[ShaderLibrary] %s changed, %q marked for reload", path, key)
		}
	}
}

func (l *library) MarkDirty(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if ok {
		e.dirty = true
	}
	return ok
}

func (l *library) Dirty() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var keys []string
	for _, key := range l.order {
		if l.entries[key].dirty {
			keys = append(keys, key)
		}
	}
	return keys
}

func (l *library) Reload() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return nil, ErrLibraryReleased
	}

	var dirty []*libraryEntry
	var sources []Source
	for _, key := range l.order {
		if e := l.entries[key]; e.dirty {
			dirty = append(dirty, e)
			sources = append(sources, e.source)
		}
	}
	if len(dirty) == 0 {
		return nil, nil
	}

	results := l.process(context.Background(), sources)
	var reloaded []string
	var errs []error
	for i, e := range dirty {
		if results[i].err != nil {
			errs = append(errs, results[i].err)
			continue
		}
		s := newShader(l.backend, e.source.Key, e.source.Stage, l.opts...)
		if err := s.compile(results[i].source, results[i].declarations); err != nil {
			errs = append(errs, err)
			continue
		}
		if e.shader != nil {
			l.retired = append(l.retired, e.shader)
		}
		e.shader = s
		e.dirty = false
		reloaded = append(reloaded, e.source.Key)
		log.Printf("[ShaderLibrary] reloaded %q", e.source.Key)
		if l.onReload != nil {
			l.onReload(e.source.Key, s)
		}
	}
	return reloaded, errors.Join(errs...)
}

func (l *library) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return
	}
	l.released = true
	if l.watcher != nil {
		l.watcher.Close()
		l.watcher = nil
	}
	l.pool.Stop()
	for _, key := range l.order {
		l.entries[key].shader.Release()
	}
	for _, s := range l.retired {
		s.Release()
	}
	l.retired = nil
}
