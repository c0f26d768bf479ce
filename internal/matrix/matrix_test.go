package matrix

import (
	"errors"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandOrder(t *testing.T) {
	configs := Default().Expand()
	require.Len(t, configs, 12)

	var got [][3]string
	for _, c := range configs[:4] {
		got = append(got, [3]string{c.CC, c.LangStd, c.Profile})
	}
	assert.Equal(t, [][3]string{
		{"gcc", "c11", "debug"},
		{"gcc", "c11", "release"},
		{"gcc", "c99", "debug"},
		{"gcc", "c99", "release"},
	}, got)

	last := configs[len(configs)-1]
	assert.Equal(t, "clang", last.CC)
	assert.Equal(t, "c23", last.LangStd)
	assert.Equal(t, "release", last.Profile)
}

func TestExpandSize(t *testing.T) {
	m := Default()
	m.Axes.Compilers = []string{"gcc", "clang", "tcc"}
	m.Axes.Profiles = []string{"release"}

	assert.Equal(t, 9, m.Size())
	assert.Len(t, m.Expand(), 9)
}

func TestMultithreadedIsDerived(t *testing.T) {
	for _, c := range Default().Expand() {
		assert.Equal(t, c.LangStd == "c11", c.MT, "%+v", c)
	}
}

func TestResolve(t *testing.T) {
	targets, err := Default().Resolve()
	require.NoError(t, err)
	require.Len(t, targets, 12)

	first := targets[0]
	assert.Equal(t, "build-debug-c11-gcc", first.Name)
	assert.Equal(t, "build/debug-c11-gcc", first.Dir)
	assert.Empty(t, first.Vars)

	// gcc, c99, release
	assert.Equal(t, "build-release-c99-gcc", targets[3].Name)
	assert.Equal(t, []Var{
		{Name: "ENABLE_RELEASE", Value: "1"},
		{Name: "DISABLE_MT", Value: "1"},
	}, targets[3].Vars)

	names := make(map[string]bool)
	for _, target := range targets {
		assert.False(t, names[target.Name])
		names[target.Name] = true
	}
}

func TestResolveCustomTemplates(t *testing.T) {
	m := Default()
	m.Axes.TargetName = "{{cc}}_{{lang_std}}{{profile == 'release' ? '_opt' : ''}}"
	m.Axes.BuildDir = "{{build_root}}/{{upper(cc)}}"
	m.Flags = []Flag{{Name: "SANITIZE", Value: "address", When: `cc == "clang" && profile == "debug"`}}

	targets, err := m.Resolve()
	require.NoError(t, err)

	assert.Equal(t, "gcc_c11", targets[0].Name)
	assert.Equal(t, "gcc_c11_opt", targets[1].Name)
	assert.Equal(t, "build/GCC", targets[0].Dir)
	assert.Empty(t, targets[0].Vars)
	assert.Equal(t, []Var{{Name: "SANITIZE", Value: "address"}}, targets[6].Vars)
}

func TestResolveEmptyConditionAlwaysHolds(t *testing.T) {
	m := Default()
	m.Flags = []Flag{{Name: "WERROR", Value: "1"}}

	targets, err := m.Resolve()
	require.NoError(t, err)
	for _, target := range targets {
		assert.Equal(t, []Var{{Name: "WERROR", Value: "1"}}, target.Vars)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Matrix)
		is     error
	}{
		{
			name:   "duplicate target names",
			modify: func(m *Matrix) { m.Axes.TargetName = "build-{{cc}}" },
			is:     ErrDuplicateTarget,
		},
		{
			name:   "bad template",
			modify: func(m *Matrix) { m.Axes.BuildDir = "{{nope}}" },
		},
		{
			name:   "non-boolean condition",
			modify: func(m *Matrix) { m.Flags = []Flag{{Name: "X", Value: "1", When: "cc"}} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Default()
			tt.modify(&m)
			_, err := m.Resolve()
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	targets, err := Default().Resolve()
	require.NoError(t, err)

	kept, err := Filter(targets, "build-*-c11-*")
	require.NoError(t, err)
	var names []string
	for _, target := range kept {
		names = append(names, target.Name)
	}
	assert.Equal(t, []string{
		"build-debug-c11-gcc",
		"build-release-c11-gcc",
		"build-debug-c11-clang",
		"build-release-c11-clang",
	}, names)

	_, err = Filter(targets, "build-*-c17-*")
	assert.ErrorIs(t, err, ErrNoConfigurations)

	_, err = Filter(targets, "build-[")
	assert.True(t, errors.Is(err, doublestar.ErrBadPattern))
}

func TestDetectCompilers(t *testing.T) {
	installed := func(names ...string) LookPathFunc {
		return func(file string) (string, error) {
			for _, n := range names {
				if n == file {
					return "/usr/bin/" + file, nil
				}
			}
			return "", errors.New("not found")
		}
	}

	t.Run("keeps installed compilers in order", func(t *testing.T) {
		m := Default()
		m.Axes.Compilers = []string{"gcc", "tcc", "clang"}
		got, err := m.detectCompilers("", installed("clang", "gcc"))
		require.NoError(t, err)
		assert.Equal(t, []string{"gcc", "clang"}, got.Axes.Compilers)
		assert.Equal(t, []string{"gcc", "tcc", "clang"}, m.Axes.Compilers)
	})

	t.Run("CC on the axis wins", func(t *testing.T) {
		got, err := Default().detectCompilers("clang", installed("gcc"))
		require.NoError(t, err)
		assert.Equal(t, []string{"clang"}, got.Axes.Compilers)
	})

	t.Run("CC off the axis is ignored", func(t *testing.T) {
		got, err := Default().detectCompilers("icx", installed("gcc"))
		require.NoError(t, err)
		assert.Equal(t, []string{"gcc"}, got.Axes.Compilers)
	})

	t.Run("nothing installed", func(t *testing.T) {
		_, err := Default().detectCompilers("", installed())
		assert.ErrorIs(t, err, ErrNoConfigurations)
	})
}
