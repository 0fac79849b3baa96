package env

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// MarshalEnv renders the env-tagged, non-zero fields of the struct pointed to
// by c as .env content. Nested structs are flattened.
func MarshalEnv(c any) (string, error) {
	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return "", fmt.Errorf("MarshalEnv: want pointer to struct, got %T", c)
	}

	vars := make(map[string]string)
	collect(v.Elem(), vars)

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		line, err := encodeLine(k, vars[k])
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// encodeLine writes key=value the way godotenv does and falls back to a
// literal single-quoted value when godotenv would read the line back
// differently, as it does for values ending in a double quote.
func encodeLine(key, value string) (string, error) {
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return "", err
	}
	if readsBack(line, key, value) {
		return line, nil
	}

	if !strings.Contains(value, "'") {
		line = fmt.Sprintf("%s='%s'", key, value)
		if readsBack(line, key, value) {
			return line, nil
		}
	}

	return "", fmt.Errorf("MarshalEnv: value of %s cannot be stored in a .env file", key)
}

func readsBack(line, key, value string) bool {
	vars, err := godotenv.Unmarshal(line)
	if err != nil {
		return false
	}
	got, ok := vars[key]
	return ok && got == value
}

func collect(v reflect.Value, vars map[string]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		val := v.Field(i)

		if val.Kind() == reflect.Struct {
			collect(val, vars)
			continue
		}

		key, _, _ := strings.Cut(field.Tag.Get("env"), ",")
		if key == "" || val.IsZero() {
			continue
		}
		vars[key] = formatValue(val)
	}
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
