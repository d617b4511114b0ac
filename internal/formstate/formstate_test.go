package formstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/machinery-dashboard/internal/models"
)

func TestSetIn(t *testing.T) {
	t.Run("nested update copies the path", func(t *testing.T) {
		original := map[string]any{
			"brand":  "CAT",
			"fluids": map[string]any{"engineOil": "15W-40", "coolant": "ELC"},
			"tires":  map[string]any{"front": "17.5R25"},
		}

		updated := SetIn(original, "fluids.engineOil", "10W-30")

		assert.Equal(t, "10W-30", updated["fluids"].(map[string]any)["engineOil"])
		assert.Equal(t, "ELC", updated["fluids"].(map[string]any)["coolant"])
		assert.Equal(t, "15W-40", original["fluids"].(map[string]any)["engineOil"], "original must not change")
		// untouched branches are shared
		assert.Equal(t, original["tires"], updated["tires"])
	})

	t.Run("creates missing intermediates", func(t *testing.T) {
		updated := SetIn(nil, "tires.front.size", "20.5R25")
		assert.Equal(t, map[string]any{"tires": map[string]any{"front": map[string]any{"size": "20.5R25"}}}, updated)
	})

	t.Run("replaces non-map intermediate", func(t *testing.T) {
		updated := SetIn(map[string]any{"tires": "none"}, "tires.rear", "x")
		assert.Equal(t, map[string]any{"tires": map[string]any{"rear": "x"}}, updated)
	})

	t.Run("top level key", func(t *testing.T) {
		original := map[string]any{"brand": "CAT"}
		updated := SetIn(original, "brand", "Volvo")
		assert.Equal(t, "Volvo", updated["brand"])
		assert.Equal(t, "CAT", original["brand"])
	})
}

func TestFlattenAndMerge(t *testing.T) {
	patch := map[string]any{
		"brand":  "Volvo",
		"fluids": map[string]any{"coolant": "OAT"},
		"parts":  []any{"a", "b"},
	}
	assert.Equal(t, map[string]any{
		"brand":          "Volvo",
		"fluids.coolant": "OAT",
		"parts":          []any{"a", "b"},
	}, Flatten(patch))

	base := map[string]any{"brand": "CAT", "fluids": map[string]any{"engineOil": "15W-40"}}
	merged := Merge(base, patch)
	assert.Equal(t, map[string]any{
		"brand":  "Volvo",
		"fluids": map[string]any{"engineOil": "15W-40", "coolant": "OAT"},
		"parts":  []any{"a", "b"},
	}, merged)
	assert.Equal(t, "CAT", base["brand"])
}

func TestCleanFormData(t *testing.T) {
	input := map[string]any{
		"brand":  "CAT",
		"model":  "",
		"hours":  0.0,
		"active": false,
		"fluids": map[string]any{
			"engineOil": "",
			"coolant":   "",
		},
		"tires": map[string]any{
			"front": "17.5R25",
			"rear":  "",
			"extra": map[string]any{"note": ""},
		},
		"empty": map[string]any{},
		"parts": []any{},
	}

	cleaned := CleanFormData(input)

	assert.Equal(t, map[string]any{
		"brand":  "CAT",
		"hours":  0.0,
		"active": false,
		"tires":  map[string]any{"front": "17.5R25"},
		"parts":  []any{},
	}, cleaned)
	assert.Equal(t, "", input["model"], "input must not change")
	assertNoEmpty(t, cleaned)
}

func assertNoEmpty(t *testing.T, m map[string]any) {
	t.Helper()
	for k, v := range m {
		switch val := v.(type) {
		case string:
			assert.NotEmpty(t, val, k)
		case map[string]any:
			assert.NotEmpty(t, val, k)
			assertNoEmpty(t, val)
		}
	}
}

func TestNormalizeUserFields(t *testing.T) {
	tests := []struct {
		name     string
		user     map[string]any
		expected string
	}{
		{"company takes precedence", map[string]any{"company": "Acme", "organization": "Other"}, "Acme"},
		{"company mirrored", map[string]any{"company": "Acme"}, "Acme"},
		{"organization mirrored", map[string]any{"organization": "Contoso"}, "Contoso"},
		{"default literal", map[string]any{"email": "a@b.co"}, models.DefaultOrganization},
		{"empty strings default", map[string]any{"company": "", "organization": ""}, models.DefaultOrganization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NormalizeUserFields(tt.user)
			assert.Equal(t, tt.expected, out["company"])
			assert.Equal(t, tt.expected, out["organization"])
		})
	}
}

func TestNormalizeUser(t *testing.T) {
	u := NormalizeUser(models.User{Organization: "Contoso"})
	assert.Equal(t, "Contoso", u.Company)
	assert.Equal(t, "Contoso", u.Organization)
}
