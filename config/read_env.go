package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"
)

const TagName = "env"

var lookupEnv = os.LookupEnv

var durationType = reflect.TypeOf(time.Duration(0))

// Parse fills conf's tagged fields from environment variables. Untagged
// struct fields are walked recursively; nil struct pointers get allocated.
// A `default` tag applies when the variable is unset or empty; `required`
// makes that an error instead.
func Parse[T any](conf *T) error {
	if conf == nil {
		return fmt.Errorf("conf is nil")
	}

	cVal := reflect.ValueOf(conf).Elem()
	if cVal.Kind() != reflect.Struct {
		return fmt.Errorf("conf type %v is not struct", cVal.Type())
	}

	return parseStruct(cVal)
}

func parseStruct(cVal reflect.Value) error {
	cType := cVal.Type()

	for i := 0; i < cType.NumField(); i++ {
		field := cType.Field(i)
		fieldVal := cVal.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		varName, tagged := field.Tag.Lookup(TagName)
		if !tagged {
			if err := parseNested(fieldVal); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required") == "true"

		input, ok := lookupEnv(varName)
		if !ok || input == "" {
			def, hasDefault := field.Tag.Lookup("default")
			if !hasDefault {
				if required {
					return fmt.Errorf("environment variable %s is required", varName)
				}
				continue
			}
			input = def
		}

		target := fieldVal
		if target.Kind() == reflect.Pointer {
			if target.IsNil() {
				target.Set(reflect.New(field.Type.Elem()))
			}
			target = target.Elem()
		}

		if err := setValue(target, input); err != nil {
			return fmt.Errorf("can't parse env %s: %w", varName, err)
		}
	}

	return nil
}

func parseNested(fieldVal reflect.Value) error {
	switch fieldVal.Kind() {
	case reflect.Struct:
		return parseStruct(fieldVal)

	case reflect.Pointer:
		if fieldVal.Type().Elem().Kind() != reflect.Struct {
			return nil
		}
		if fieldVal.IsNil() {
			fieldVal.Set(reflect.New(fieldVal.Type().Elem()))
		}
		return parseStruct(fieldVal.Elem())
	}

	return nil
}

func setValue(fVal reflect.Value, input string) error {
	switch fVal.Kind() {
	case reflect.String:
		fVal.SetString(input)

	case reflect.Bool:
		b, err := strconv.ParseBool(input)
		if err != nil {
			return err
		}
		fVal.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fVal.Type() == durationType {
			d, err := time.ParseDuration(input)
			if err != nil {
				return err
			}
			fVal.SetInt(int64(d))
			return nil
		}

		n, err := strconv.ParseInt(input, 10, fVal.Type().Bits())
		if err != nil {
			return err
		}
		fVal.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(input, 10, fVal.Type().Bits())
		if err != nil {
			return err
		}
		fVal.SetUint(n)

	default:
		return fmt.Errorf("unsupported field kind %v", fVal.Kind())
	}

	return nil
}
