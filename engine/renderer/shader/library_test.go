package shader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program/programtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShaderFile(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestLibraryLoad(t *testing.T) {
	dir := t.TempDir()
	b := programtest.NewBackend()
	lib := NewLibrary(b, WithWorkers(2))
	defer lib.Release()

	sources := []Source{
		{Key: "grey", Stage: program.ShaderStageFragment, Path: writeShaderFile(t, dir, "grey.frag", "//@fx:include color\n//@fx:uniform amount\nvoid main() {}")},
		{Key: "sprite", Stage: program.ShaderStageVertex, Path: writeShaderFile(t, dir, "sprite.vert", "//@fx:attribute 0 aPosition\nvoid main() {}")},
		{Key: "plain", Stage: program.ShaderStageFragment, Path: writeShaderFile(t, dir, "plain.frag", "void main() {}")},
	}
	require.NoError(t, lib.Load(context.Background(), sources...))

	assert.Equal(t, []string{"grey", "sprite", "plain"}, lib.Keys())
	grey, ok := lib.Shader("grey")
	require.True(t, ok)
	assert.Contains(t, grey.Source(), "float luminance")
	assert.Len(t, grey.Declarations(), 1)

	sprite, _ := lib.Shader("sprite")
	assert.Equal(t, program.ShaderStageVertex, sprite.Stage())

	_, ok = lib.Shader("missing")
	assert.False(t, ok)
	assert.Equal(t, 3, b.Count(programtest.OpCompileShader))
}

func TestLibraryLoadIsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	b := programtest.NewBackend()
	lib := NewLibrary(b)
	defer lib.Release()

	good := Source{Key: "good", Stage: program.ShaderStageFragment, Path: writeShaderFile(t, dir, "good.frag", "void main() {}")}
	missing := Source{Key: "missing", Stage: program.ShaderStageFragment, Path: filepath.Join(dir, "nope.frag")}
	bad := Source{Key: "bad", Stage: program.ShaderStageFragment, Path: writeShaderFile(t, dir, "bad.frag", "//@fx:bogus")}

	err := lib.Load(context.Background(), good, missing, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), `shader "bad"`)
	assert.Empty(t, lib.Keys())
	assert.Zero(t, b.Count(programtest.OpCompileShader))

	b.FailCompileWhen(func(label string) error {
		if label == "broken" {
			return errors.New("link me not")
		}
		return nil
	})
	broken := Source{Key: "broken", Stage: program.ShaderStageFragment, Path: writeShaderFile(t, dir, "broken.frag", "void main() {}")}
	err = lib.Load(context.Background(), good, broken)
	require.Error(t, err)
	assert.Empty(t, lib.Keys())
	assert.Equal(t, 1, b.Count(programtest.OpDeleteShader))
}

func TestLibraryRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(programtest.NewBackend())
	defer lib.Release()

	src := Source{Key: "a", Stage: program.ShaderStageFragment, Path: writeShaderFile(t, dir, "a.frag", "void main() {}")}
	assert.ErrorIs(t, lib.Load(context.Background(), src, src), ErrDuplicateShader)
	require.NoError(t, lib.Load(context.Background(), src))
	assert.ErrorIs(t, lib.Load(context.Background(), src), ErrDuplicateShader)
}

func TestLibraryLoadCancelled(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(programtest.NewBackend())
	defer lib.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := Source{Key: "a", Stage: program.ShaderStageFragment, Path: writeShaderFile(t, dir, "a.frag", "void main() {}")}
	assert.ErrorIs(t, lib.Load(ctx, src), context.Canceled)
}

func TestLibraryReloadReplacesIdentity(t *testing.T) {
	dir := t.TempDir()
	b := programtest.NewBackend()
	var reloaded []string
	lib := NewLibrary(b, WithOnReload(func(key string, s Shader) {
		reloaded = append(reloaded, key)
	}))
	defer lib.Release()

	path := writeShaderFile(t, dir, "fx.frag", "// v1\nvoid main() {}")
	require.NoError(t, lib.Load(context.Background(), Source{Key: "fx", Stage: program.ShaderStageFragment, Path: path}))
	before, _ := lib.Shader("fx")

	keys, err := lib.Reload()
	require.NoError(t, err)
	assert.Empty(t, keys)

	writeShaderFile(t, dir, "fx.frag", "// v2\nvoid main() {}")
	assert.True(t, lib.MarkDirty("fx"))
	assert.False(t, lib.MarkDirty("other"))
	assert.Equal(t, []string{"fx"}, lib.Dirty())

	keys, err = lib.Reload()
	require.NoError(t, err)
	assert.Equal(t, []string{"fx"}, keys)
	assert.Equal(t, []string{"fx"}, reloaded)
	assert.Empty(t, lib.Dirty())

	after, _ := lib.Shader("fx")
	assert.NotSame(t, before, after)
	assert.True(t, strings.HasPrefix(after.Source(), "// v2"))
	assert.False(t, b.Shader(before.Handle()).Deleted)
}

func TestLibraryReloadFailureKeepsShader(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(programtest.NewBackend())
	defer lib.Release()

	path := writeShaderFile(t, dir, "fx.frag", "void main() {}")
	require.NoError(t, lib.Load(context.Background(), Source{Key: "fx", Stage: program.ShaderStageFragment, Path: path}))
	before, _ := lib.Shader("fx")

	writeShaderFile(t, dir, "fx.frag", "//@fx:include nowhere")
	lib.MarkDirty("fx")
	keys, err := lib.Reload()
	assert.Error(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, []string{"fx"}, lib.Dirty())

	after, _ := lib.Shader("fx")
	assert.Same(t, before, after)
}

func TestLibraryWatchMarksDirty(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(programtest.NewBackend())
	defer lib.Release()

	path := writeShaderFile(t, dir, "fx.frag", "void main() {}")
	other := writeShaderFile(t, dir, "other.frag", "void main() {}")
	require.NoError(t, lib.Load(context.Background(),
		Source{Key: "fx", Stage: program.ShaderStageFragment, Path: path},
		Source{Key: "other", Stage: program.ShaderStageFragment, Path: other},
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, lib.Watch(ctx))

	writeShaderFile(t, dir, "fx.frag", "// edited\nvoid main() {}")
	assert.Eventually(t, func() bool {
		dirty := lib.Dirty()
		return len(dirty) == 1 && dirty[0] == "fx"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLibraryReleased(t *testing.T) {
	dir := t.TempDir()
	b := programtest.NewBackend()
	lib := NewLibrary(b)

	path := writeShaderFile(t, dir, "fx.frag", "void main() {}")
	require.NoError(t, lib.Load(context.Background(), Source{Key: "fx", Stage: program.ShaderStageFragment, Path: path}))
	s, _ := lib.Shader("fx")

	lib.Release()
	lib.Release()
	assert.True(t, b.Shader(s.Handle()).Deleted)
	assert.ErrorIs(t, lib.Load(context.Background()), ErrLibraryReleased)
	assert.ErrorIs(t, lib.Watch(context.Background()), ErrLibraryReleased)
	_, err := lib.Reload()
	assert.ErrorIs(t, err, ErrLibraryReleased)
}

func TestLibraryReleaseFreesReplacedShaders(t *testing.T) {
	dir := t.TempDir()
	b := programtest.NewBackend()
	lib := NewLibrary(b)

	path := writeShaderFile(t, dir, "fx.frag", "void main() {}")
	require.NoError(t, lib.Load(context.Background(), Source{Key: "fx", Stage: program.ShaderStageFragment, Path: path}))
	first, _ := lib.Shader("fx")

	for range 3 {
		require.True(t, lib.MarkDirty("fx"))
		_, err := lib.Reload()
		require.NoError(t, err)
	}
	assert.False(t, b.Shader(first.Handle()).Deleted, "replaced shaders stay usable until release")
	assert.Zero(t, b.Count(programtest.OpDeleteShader))

	lib.Release()
	assert.Equal(t, 4, b.Count(programtest.OpCompileShader))
	assert.Equal(t, b.Count(programtest.OpCompileShader), b.Count(programtest.OpDeleteShader))
	assert.True(t, b.Shader(first.Handle()).Deleted)
}
