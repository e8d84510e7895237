package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultJobCatalog(t *testing.T) {
	catalog := DefaultJobCatalog()
	require.NoError(t, catalog.Validate())

	tech, ok := catalog.Category("Technology")
	require.True(t, ok)
	assert.Contains(t, tech.Roles, "Software Engineer")
	assert.True(t, catalog.HasRole("Pharmacist"))
	assert.False(t, catalog.HasRole("Astronaut"))
}

func TestLoadJobCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - name: Aviation
    roles: [Pilot, Flight Dispatcher]
  - name: Education
    roles:
      - Teacher
`), 0600))

	catalog, err := LoadJobCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Categories, 2)
	assert.Equal(t, []string{"Pilot", "Flight Dispatcher"}, catalog.Categories[0].Roles)
}

func TestParseJobCatalogRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":          "categories: []",
		"unnamed":        "categories:\n  - roles: [A]",
		"duplicate":      "categories:\n  - name: A\n    roles: [x]\n  - name: A\n    roles: [y]",
		"no roles":       "categories:\n  - name: A",
		"blank role":     "categories:\n  - name: A\n    roles: [\" \"]",
		"malformed yaml": "categories: [",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJobCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := LoadJobCatalog("/nonexistent/jobs.yaml")
	assert.Error(t, err)
}
