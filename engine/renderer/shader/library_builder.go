package shader

// LibraryBuilderOption configures a Library created with NewLibrary.
type LibraryBuilderOption func(*library)

// WithWorkers sets the number of workers reading and pre-processing sources. Defaults to 4.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LibraryBuilderOption: a function that applies the worker count to a library instance
func WithWorkers(n int) LibraryBuilderOption {
	return func(l *library) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithQueueSize sets the worker pool task queue size. Defaults to 64.
//
// Parameters:
//   - n: the queue size
//
// Returns:
//   - LibraryBuilderOption: a function that applies the queue size to a library instance
func WithQueueSize(n int) LibraryBuilderOption {
	return func(l *library) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithLibraryPreProcessor sets the pre-processor template cloned for every source.
// Defaults to NewPreProcessor for the backend's shading language.
//
// Parameters:
//   - pp: the pre-processor template
//
// Returns:
//   - LibraryBuilderOption: a function that applies the pre-processor to a library instance
func WithLibraryPreProcessor(pp PreProcessor) LibraryBuilderOption {
	return func(l *library) {
		l.pp = pp
	}
}

// WithShaderOptions sets options applied to every shader the library compiles.
//
// Parameters:
//   - opts: the shader options
//
// Returns:
//   - LibraryBuilderOption: a function that applies the shader options to a library instance
func WithShaderOptions(opts ...ShaderBuilderOption) LibraryBuilderOption {
	return func(l *library) {
		l.opts = append(l.opts, opts...)
	}
}

// WithOnReload sets a callback invoked on the reloading goroutine for every replaced shader.
//
// Parameters:
//   - fn: the callback receiving the key and the new shader
//
// Returns:
//   - LibraryBuilderOption: a function that applies the callback to a library instance
func WithOnReload(fn func(key string, s Shader)) LibraryBuilderOption {
	return func(l *library) {
		l.onReload = fn
	}
}
