package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/seismo-labs/jane/internal/core/domain"
)

// Translate converts generic attribute query parameters into a
// predicate set. Three parameter shapes are recognized against the
// schema: "key" (match), "min_key" (lower bound) and "max_key" (upper
// bound). Keys that resolve to no schema attribute are left alone; the
// caller decides whether leftovers are an error.
//
// Translation is all-or-nothing: the first unparseable value aborts
// with a ParameterError and no partial set.
func Translate(schema domain.AttributeSchema, params domain.QueryParams) (domain.PredicateSet, error) {
	var set domain.PredicateSet

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		base, op := key, domain.OpEquals
		switch {
		case strings.HasPrefix(key, "min_"):
			base, op = key[len("min_"):], domain.OpGTE
		case strings.HasPrefix(key, "max_"):
			base, op = key[len("max_"):], domain.OpLTE
		}
		vt, ok := schema[base]
		if !ok {
			continue
		}

		if op != domain.OpEquals {
			value, err := ParseScalar(vt, key, params.First(key))
			if err != nil {
				return domain.PredicateSet{}, err
			}
			set.And(domain.Predicate{Key: base, Op: op, Value: value, Type: vt})
			continue
		}

		clause, err := matchClause(vt, base, key, params[key])
		if err != nil {
			return domain.PredicateSet{}, err
		}
		set.AndAny(clause)
	}

	return set, nil
}

// matchClause builds the OR clause for one attribute from all raw
// values of its parameter. Values are comma-split into alternatives.
// For string attributes a lone * disables the filter entirely and
// wildcard values become LIKE patterns.
func matchClause(vt domain.ValueType, attr, param string, raws []string) (domain.Clause, error) {
	var clause domain.Clause
	for _, raw := range raws {
		for _, tok := range strings.Split(raw, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if vt == domain.ValueString {
				if tok == "*" {
					return nil, nil
				}
				clause = append(clause, stringPredicate(attr, tok))
				continue
			}
			value, err := ParseScalar(vt, param, tok)
			if err != nil {
				return nil, err
			}
			clause = append(clause, domain.Predicate{
				Key: attr, Op: domain.OpEquals, Value: value, Type: vt,
			})
		}
	}
	return clause, nil
}

// stringPredicate builds the predicate for one string alternative,
// choosing between exact match and a LIKE pattern. Matching is
// case-insensitive either way.
func stringPredicate(attr, tok string) domain.Predicate {
	if strings.ContainsAny(tok, "*?") {
		return domain.Predicate{
			Key: attr, Op: domain.OpLike, Value: globToLike(tok),
			Type: domain.ValueString, FoldCase: true,
		}
	}
	return domain.Predicate{
		Key: attr, Op: domain.OpEquals, Value: tok,
		Type: domain.ValueString, FoldCase: true,
	}
}

// globToLike rewrites a * / ? glob into a LIKE pattern, escaping the
// characters LIKE itself treats specially.
func globToLike(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseScalar parses one raw parameter value per the attribute's
// declared type. DateTime values come back as normalised strings so
// they compare like the indexed form.
func ParseScalar(vt domain.ValueType, param, raw string) (any, error) {
	switch vt {
	case domain.ValueString:
		return raw, nil
	case domain.ValueInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &domain.ParameterError{Name: param, Value: raw, Reason: "not an integer"}
		}
		return n, nil
	case domain.ValueFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &domain.ParameterError{Name: param, Value: raw, Reason: "not a number"}
		}
		return f, nil
	case domain.ValueBool:
		return parseBoolToken(param, raw)
	case domain.ValueDateTime:
		t, err := domain.ParseTime(raw)
		if err != nil {
			return nil, &domain.ParameterError{Name: param, Value: raw, Reason: "not a timestamp"}
		}
		return domain.FormatTime(t), nil
	default:
		return nil, &domain.ParameterError{Name: param, Value: raw, Reason: "unsupported attribute type"}
	}
}

// parseBoolToken accepts the FDSN boolean vocabulary.
func parseBoolToken(param, raw string) (any, error) {
	switch strings.ToLower(raw) {
	case "t", "true", "yes", "y":
		return true, nil
	case "f", "false", "no", "n":
		return false, nil
	default:
		return nil, &domain.ParameterError{Name: param, Value: raw,
			Reason: "not a boolean (use true/false, yes/no, t/f, y/n)"}
	}
}
