package poml

import (
	"context"
	"os"
	"time"
)

// Compilation is the per-compile state: the error collection, the file
// buffer cache, and the expression evaluation trace map. It is created
// fresh by every call to Options.Read and never shared across compiles.
type Compilation struct {
	Options *Options

	SourcePath string
	Source     string

	Errors []*CompileError

	// Trace maps a text node's byte Span to the last failed expression
	// evaluation observed there, so editors/CLI --trace-dir can show
	// inline errors. Successful evaluations are not recorded.
	Trace map[Span]TraceEntry

	// buffers caches path -> (mtime, bytes) for include/context sources,
	// invalidated on mtime mismatch, scoped to this compile only.
	buffers map[string]bufferEntry

	// globals is the mutable global context populated by <let>.
	globals Context

	// disabled holds component names excluded for this compile, merged
	// from Options.Disabled and any <meta components="-Tag"> directives.
	disabled map[string]bool

	// meta holds the tools/schema/runtime meta state accumulated
	// while reading.
	meta *MetaState

	ctx context.Context
}

// TraceEntry records the last failed expression evaluation at a given
// span; the reader fills in Expression and Err, and leaves Result nil.
type TraceEntry struct {
	Expression string
	Result     any
	Err        error
}

type bufferEntry struct {
	mtime time.Time
	data  []byte
}

// NewCompilation constructs a fresh, compile-local state object.
func (o *Options) NewCompilation(sourcePath, source string, ctx context.Context) *Compilation {
	if ctx == nil {
		ctx = context.Background()
	}
	disabled := map[string]bool{}
	for k, v := range o.Disabled {
		disabled[k] = v
	}
	return &Compilation{
		Options:    o,
		SourcePath: sourcePath,
		Source:     source,
		Trace:      map[Span]TraceEntry{},
		buffers:    map[string]bufferEntry{},
		globals:    NewContext(),
		disabled:   disabled,
		meta:       newMetaState(),
		ctx:        ctx,
	}
}

// pushSource temporarily reassigns the compile's "current source" pair
// (used by AddError and relative-path resolution) to an included
// document's own path/content, returning a restore func. Safe under the
// single-threaded cooperative scheduling model: no concurrent compile
// ever shares a Compilation.
func (c *Compilation) pushSource(path, source string) func() {
	oldPath, oldSource := c.SourcePath, c.Source
	c.SourcePath, c.Source = path, source
	return func() { c.SourcePath, c.Source = oldPath, oldSource }
}

// Context returns the compile's cancellation context, for components
// (a MediaPreprocessor hook, in particular) that need to honor it while
// doing their own blocking work inside an asynchronous render task.
func (c *Compilation) Context() context.Context {
	return c.ctx
}

// Cancelled reports whether the compile's context has been cancelled,
// checked at the points where compilation can suspend (asynchronous
// component renderers, include resolution).
func (c *Compilation) Cancelled() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// loadBuffer reads path exactly as given (it does no resolution of its
// own) through Options.Loader, using the per-compile mtime-keyed cache.
func (c *Compilation) loadBuffer(path string) ([]byte, error) {
	abs := path
	if cached, ok := c.buffers[abs]; ok {
		if info, err := os.Stat(abs); err == nil && info.ModTime().Equal(cached.mtime) {
			return cached.data, nil
		}
	}
	data, err := c.Options.Loader(abs)
	if err != nil {
		return nil, err
	}
	mtime := time.Time{}
	if info, err := os.Stat(abs); err == nil {
		mtime = info.ModTime()
	}
	c.buffers[abs] = bufferEntry{mtime: mtime, data: data}
	return data, nil
}
