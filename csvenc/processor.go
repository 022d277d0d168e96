// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvenc

import (
	"fmt"
	"strings"
	"time"
)

// Processor transforms one cell value before it is encoded. A nil
// Processor in a processor list means the column passes through unchanged.
// A Processor error aborts the record being written.
type Processor func(value any) (any, error)

// Chain applies ps left to right, feeding each result to the next. Nil
// entries are skipped.
func Chain(ps ...Processor) Processor {
	return func(v any) (any, error) {
		var err error
		for _, p := range ps {
			if p == nil {
				continue
			}
			if v, err = p(v); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

// Trim strips leading and trailing whitespace from the cell text.
func Trim() Processor {
	return func(v any) (any, error) {
		return strings.TrimSpace(CellString(v)), nil
	}
}

// Upper maps the cell text to upper case.
func Upper() Processor {
	return func(v any) (any, error) {
		return strings.ToUpper(CellString(v)), nil
	}
}

// Lower maps the cell text to lower case.
func Lower() Processor {
	return func(v any) (any, error) {
		return strings.ToLower(CellString(v)), nil
	}
}

// FmtBool renders bool cells with the given words.
func FmtBool(truthy, falsy string) Processor {
	return func(v any) (any, error) {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("FmtBool: %T is not a bool", v)
		}
		if b {
			return truthy, nil
		}
		return falsy, nil
	}
}

// FmtTime renders time.Time cells with the given layout.
func FmtTime(layout string) Processor {
	return func(v any) (any, error) {
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("FmtTime: %T is not a time.Time", v)
		}
		return t.Format(layout), nil
	}
}

// CellString renders a raw cell value the way [Writer] does before
// encoding: nil becomes the empty string, strings pass through, everything
// else goes through fmt.Sprint.
func CellString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}
