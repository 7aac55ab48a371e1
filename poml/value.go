package poml

import (
	"fmt"
	"reflect"
	"strconv"
)

// truthy implements the evaluator's boolean coercion for `if` attributes
// and logical operators.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int64:
		return t != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func negate(f float64) any {
	if f == float64(int64(f)) {
		return -int64(f)
	}
	return -f
}

func isIntValue(v any) bool {
	switch v.(type) {
	case int64, int:
		return true
	}
	return false
}

func numericOp(l, r any, op string) (any, error) {
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	if !lok || !rok {
		return nil, fmt.Errorf("arithmetic on non-numeric values (%v %s %v)", l, op, r)
	}
	intResult := isIntValue(l) && isIntValue(r)
	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		result = lf / rf
		intResult = false
	case "%":
		if rf == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		result = float64(int64(lf) % int64(rf))
	}
	if intResult {
		return int64(result), nil
	}
	return result, nil
}

func compareValues(l, r any, op string) (any, error) {
	lf, lok := toNumber(l)
	rf, rok := toNumber(r)
	if lok && rok {
		switch op {
		case "<":
			return lf < rf, nil
		case ">":
			return lf > rf, nil
		case "<=":
			return lf <= rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}
	ls, lsok := l.(string)
	rs, rsok := r.(string)
	if lsok && rsok {
		switch op {
		case "<":
			return ls < rs, nil
		case ">":
			return ls > rs, nil
		case "<=":
			return ls <= rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}
	return nil, fmt.Errorf("cannot compare %v and %v", l, r)
}

func equalValues(l, r any) bool {
	if l == nil || r == nil {
		return l == r
	}
	if lf, lok := toNumber(l); lok {
		if rf, rok := toNumber(r); rok {
			return lf == rf
		}
	}
	return reflect.DeepEqual(l, r)
}

func toStr(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func memberAccess(target any, name string) (any, error) {
	switch t := target.(type) {
	case map[string]any:
		v, ok := t[name]
		if !ok {
			return nil, nil
		}
		return v, nil
	case LoopBinding:
		switch name {
		case "index":
			return int64(t.Index), nil
		case "length":
			return int64(t.Length), nil
		case "first":
			return t.First, nil
		case "last":
			return t.Last, nil
		}
		return nil, fmt.Errorf("loop has no member %q", name)
	default:
		return nil, fmt.Errorf("cannot access member %q of %T", name, target)
	}
}

func indexAccess(target, idx any) (any, error) {
	switch t := target.(type) {
	case []any:
		i, ok := toNumber(idx)
		if !ok {
			return nil, fmt.Errorf("array index must be numeric, got %v", idx)
		}
		n := int(i)
		if n < 0 || n >= len(t) {
			return nil, fmt.Errorf("index %d out of range (len %d)", n, len(t))
		}
		return t[n], nil
	case map[string]any:
		key := toStr(idx)
		v, ok := t[key]
		if !ok {
			return nil, nil
		}
		return v, nil
	case string:
		i, ok := toNumber(idx)
		if !ok {
			return nil, fmt.Errorf("string index must be numeric, got %v", idx)
		}
		n := int(i)
		if n < 0 || n >= len(t) {
			return nil, fmt.Errorf("index %d out of range", n)
		}
		return string(t[n]), nil
	default:
		return nil, fmt.Errorf("cannot index into %T", target)
	}
}

// asArray coerces an evaluated expression result into an []any for
// `for="itemName in listExpr"` loop iteration.
func asArray(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			out = append(out, val)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("cannot iterate over %T", v)
	}
}
