package strata

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// TagName is the struct tag consulted when scanning configuration
// values into target structs.
const TagName = "strata"

// Scan decodes the section at a dotted key into a target struct
// pointer. An empty path scans the whole tree; a path that does not
// resolve scans an empty section, leaving the target zeroed. Decoding
// is weakly typed: strings convert to numbers, booleans, durations,
// addresses and URLs where the target field asks for them.
func (t *Tree) Scan(path string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be non-nil pointer, got %T", target)
	}

	section := t
	if path != "" {
		v, err := t.Get(path)
		switch {
		case errors.Is(err, ErrKeyNotFound):
			section = NewTree() // Empty section
		case err != nil:
			return err
		default:
			sub, ok := v.(*Tree)
			if !ok {
				return fmt.Errorf("path %q refers to non-section value (type %T)", path, v)
			}
			section = sub
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          TagName,
		WeaklyTypedInput: true,
		DecodeHook:       scanDecodeHook(),
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(section.Map()); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", path, err)
	}
	return nil
}

// BuildAndScan builds and decodes the resolved configuration into the
// provided target struct pointer.
func (b *Builder) BuildAndScan(target any) error {
	cfg, err := b.Build()
	if err != nil {
		return err
	}
	return cfg.Scan("", target)
}

// scanDecodeHook returns the composite decode hook for all type
// conversions.
func scanDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToNetHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// stringToNetHookFunc converts strings into net.IP, net.IPNet and
// url.URL targets, in value or pointer form.
func stringToNetHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		str := data.(string)

		isPtr := t.Kind() == reflect.Ptr
		target := t
		if isPtr {
			target = t.Elem()
		}

		switch target {
		case reflect.TypeOf(net.IP{}):
			ip := net.ParseIP(str)
			if ip == nil {
				return nil, fmt.Errorf("invalid IP address: %s", str)
			}
			return ip, nil
		case reflect.TypeOf(net.IPNet{}):
			_, ipnet, err := net.ParseCIDR(str)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR: %w", err)
			}
			if isPtr {
				return ipnet, nil
			}
			return *ipnet, nil
		case reflect.TypeOf(url.URL{}):
			u, err := url.Parse(str)
			if err != nil {
				return nil, fmt.Errorf("invalid URL: %w", err)
			}
			if isPtr {
				return u, nil
			}
			return *u, nil
		}

		return data, nil
	}
}
