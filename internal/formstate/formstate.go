// Package formstate holds helpers for nested form payloads decoded as
// map[string]any: immutable dotted-path updates, flattening, cleaning and
// the user organization/company normalisation.
package formstate

import (
	"strings"

	"github.com/ukydev/machinery-dashboard/internal/models"
)

// SetIn returns a copy of obj with value stored at the dotted path. Maps along
// the path are copied, never mutated; missing or non-map intermediates are
// replaced by new maps. obj itself may be nil.
func SetIn(obj map[string]any, path string, value any) map[string]any {
	keys := strings.Split(path, ".")
	return setIn(obj, keys, value)
}

func setIn(obj map[string]any, keys []string, value any) map[string]any {
	out := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}

	head := keys[0]
	if len(keys) == 1 {
		out[head] = value
		return out
	}

	child, _ := out[head].(map[string]any)
	out[head] = setIn(child, keys[1:], value)
	return out
}

// Flatten turns nested maps into dotted paths. Non-map values, including
// slices, are leaves.
func Flatten(obj map[string]any) map[string]any {
	out := make(map[string]any)
	flatten("", obj, out)
	return out
}

func flatten(prefix string, obj map[string]any, out map[string]any) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// Merge applies patch onto base path by path, so nested objects in the patch
// only overwrite the fields they carry.
func Merge(base, patch map[string]any) map[string]any {
	out := base
	if out == nil {
		out = map[string]any{}
	}
	for path, v := range Flatten(patch) {
		out = SetIn(out, path, v)
	}
	return out
}

// CleanFormData drops empty strings and empty objects, recursing into nested
// objects and removing any that end up empty. The input is not modified.
func CleanFormData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			if val == "" {
				continue
			}
			out[k] = val
		case map[string]any:
			cleaned := CleanFormData(val)
			if len(cleaned) == 0 {
				continue
			}
			out[k] = cleaned
		default:
			out[k] = v
		}
	}
	return out
}

// NormalizeUserFields makes the company and organization fields of a session
// user agree: company wins and is mirrored into organization, else
// organization is mirrored into company, else both get the default.
func NormalizeUserFields(user map[string]any) map[string]any {
	company, _ := user["company"].(string)
	organization, _ := user["organization"].(string)
	resolved := models.ResolveOrganization(company, organization)

	out := SetIn(user, "company", resolved)
	return SetIn(out, "organization", resolved)
}

// NormalizeUser is NormalizeUserFields for a typed user.
func NormalizeUser(u models.User) models.User {
	resolved := models.ResolveOrganization(u.Company, u.Organization)
	u.Company = resolved
	u.Organization = resolved
	return u
}
