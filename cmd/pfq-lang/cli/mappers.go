package cli

import (
	"reflect"

	"github.com/alecthomas/kong"
)

// keyValueMapper creates a Kong mapper for KeyValue.
func keyValueMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("key=value", &s); err != nil {
			return err
		}
		kv, err := ParseKeyValue(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(kv))
		return nil
	}
}

// dbPathMapper creates a Kong mapper for DBPath.
func dbPathMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("path", &s); err != nil {
			return err
		}
		p, err := ParseDBPath(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(p))
		return nil
	}
}

// maskMapper creates a Kong mapper for Mask.
func maskMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("mask", &s); err != nil {
			return err
		}
		m, err := ParseMask(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(m))
		return nil
	}
}

// verdictMapper creates a Kong mapper for VerdictName.
func verdictMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("verdict", &s); err != nil {
			return err
		}
		v, err := ParseVerdictName(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(v))
		return nil
	}
}
