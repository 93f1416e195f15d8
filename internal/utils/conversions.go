package utils

func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0)
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}

// FirstString returns the first string held by v, which may be a string or a JSON array of strings.
func FirstString(v any) (string, bool) {
	switch value := v.(type) {
	case string:
		return value, value != ""
	case []any:
		if s := ToStringSlice(value); len(s) > 0 {
			return s[0], true
		}
	case []string:
		if len(value) > 0 {
			return value[0], true
		}
	}
	return "", false
}
