package extension_test

import (
	"errors"
	"testing"

	"github.com/ezex-io/podchannel/config"
	"github.com/ezex-io/podchannel/extension"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExt struct {
	setupErr   error
	cleaned    *[]string
	cleanupTag string
}

func (f *fakeExt) Setup() error { return f.setupErr }
func (f *fakeExt) Cleanup() error {
	*f.cleaned = append(*f.cleaned, f.cleanupTag)

	return nil
}

func TestLoadAndGet(t *testing.T) {
	m := extension.NewManager()
	registry := map[string]extension.Constructor{
		"fake": func(map[string]string) (any, error) { return &fakeExt{}, nil },
	}

	m.Load([]config.ExtensionConfig{{Name: "a", Class: "fake"}}, registry)

	require.NotNil(t, m.Get("a"))
	assert.Nil(t, m.Get("missing"))
}

func TestLoadSkipsFailedConstruction(t *testing.T) {
	m := extension.NewManager()
	registry := map[string]extension.Constructor{
		"fail": func(map[string]string) (any, error) { return nil, errors.New("nope") },
	}

	m.Load([]config.ExtensionConfig{{Name: "a", Class: "fail"}}, registry)

	assert.Nil(t, m.Get("a"))
}

func TestRemoveByName(t *testing.T) {
	m := extension.NewManager()
	registry := map[string]extension.Constructor{
		"fake": func(map[string]string) (any, error) { return &fakeExt{}, nil },
	}

	m.Load([]config.ExtensionConfig{{Name: "a", Class: "fake"}}, registry)
	m.Load([]config.ExtensionConfig{{Name: "a"}}, registry)

	assert.Nil(t, m.Get("a"))
}

func TestSetupDropsFailedExtensions(t *testing.T) {
	m := extension.NewManager()
	registry := map[string]extension.Constructor{
		"bad": func(map[string]string) (any, error) {
			return &fakeExt{setupErr: errors.New("boom")}, nil
		},
	}

	m.Load([]config.ExtensionConfig{{Name: "a", Class: "bad"}}, registry)
	m.Setup()

	assert.Nil(t, m.Get("a"))
}

func TestCleanupRunsInReverseOrder(t *testing.T) {
	var order []string

	m := extension.NewManager()
	registry := map[string]extension.Constructor{
		"first":  func(map[string]string) (any, error) { return &fakeExt{cleaned: &order, cleanupTag: "first"}, nil },
		"second": func(map[string]string) (any, error) { return &fakeExt{cleaned: &order, cleanupTag: "second"}, nil },
	}

	m.Load([]config.ExtensionConfig{
		{Name: "a", Class: "first"},
		{Name: "b", Class: "second"},
	}, registry)

	m.Cleanup()

	assert.Equal(t, []string{"second", "first"}, order)
}
