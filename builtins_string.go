package treejs

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"com.github.sebastianobarrera.modeledjs/treejs/internal/jsnum"
)

func (r *Realm) installString() {
	cons := r.defineConstructor("String", 1, r.StringProto, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		var s JSString
		if len(args) > 0 {
			var err error
			s, err = vm.ToString(args[0])
			if err != nil {
				return nil, err
			}
		}
		if flags.isNew {
			return vm.realm.newWrapper(s), nil
		}
		return s, nil
	})

	r.defineMethod(cons, "fromCharCode", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		var sb strings.Builder
		for _, a := range args {
			code, err := vm.ToUint32(a)
			if err != nil {
				return nil, err
			}
			sb.WriteRune(rune(code & 0xffff))
		}
		return JSString(sb.String()), nil
	})

	proto := r.StringProto
	primitive := func(vm *VM, subject JSValue, method string) (JSValue, error) {
		switch s := subject.(type) {
		case JSString:
			return s, nil
		case *JSObject:
			if ps, isStr := s.primitive.(JSString); isStr {
				return ps, nil
			}
		}
		return nil, vm.ThrowError("TypeError", "String.prototype."+method+" called on incompatible "+typeOf(subject))
	}
	r.defineMethod(proto, "toString", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return primitive(vm, subject, "toString")
	})
	r.defineMethod(proto, "valueOf", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return primitive(vm, subject, "valueOf")
	})

	r.defineMethod(proto, "charAt", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		runes, err := vm.thisRunes(subject, "charAt")
		if err != nil {
			return nil, err
		}
		pos, err := vm.ToInteger(arg(args, 0))
		if err != nil {
			return nil, err
		}
		if pos < 0 || pos >= float64(len(runes)) {
			return JSString(""), nil
		}
		return JSString(runes[int(pos)]), nil
	})

	r.defineMethod(proto, "charCodeAt", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		runes, err := vm.thisRunes(subject, "charCodeAt")
		if err != nil {
			return nil, err
		}
		pos, err := vm.ToInteger(arg(args, 0))
		if err != nil {
			return nil, err
		}
		if pos < 0 || pos >= float64(len(runes)) {
			return nan, nil
		}
		return JSNumber(runes[int(pos)]), nil
	})

	r.defineMethod(proto, "indexOf", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		runes, err := vm.thisRunes(subject, "indexOf")
		if err != nil {
			return nil, err
		}
		search, err := vm.ToString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		pos, err := vm.ToInteger(arg(args, 1))
		if err != nil {
			return nil, err
		}
		start := int(math.Min(math.Max(pos, 0), float64(len(runes))))
		ndx := strings.Index(string(runes[start:]), string(search))
		if ndx < 0 {
			return JSNumber(-1), nil
		}
		return JSNumber(start + utf8.RuneCountInString(string(runes[start:])[:ndx])), nil
	})

	r.defineMethod(proto, "lastIndexOf", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		runes, err := vm.thisRunes(subject, "lastIndexOf")
		if err != nil {
			return nil, err
		}
		search, err := vm.ToString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		searchLen := utf8.RuneCountInString(string(search))
		end := len(runes)
		if posVal := arg(args, 1); posVal != undefined {
			pos, err := vm.ToNumber(posVal)
			if err != nil {
				return nil, err
			}
			if !math.IsNaN(float64(pos)) {
				end = int(math.Min(math.Max(math.Trunc(float64(pos)), 0), float64(len(runes))))
			}
		}
		limit := min(end+searchLen, len(runes))
		ndx := strings.LastIndex(string(runes[:limit]), string(search))
		if ndx < 0 {
			return JSNumber(-1), nil
		}
		return JSNumber(utf8.RuneCountInString(string(runes[:limit])[:ndx])), nil
	})

	r.defineMethod(proto, "substring", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		runes, err := vm.thisRunes(subject, "substring")
		if err != nil {
			return nil, err
		}
		clamp := func(v JSValue, dflt int) (int, error) {
			if v == undefined {
				return dflt, nil
			}
			f, err := vm.ToInteger(v)
			return int(math.Min(math.Max(f, 0), float64(len(runes)))), err
		}
		start, err := clamp(arg(args, 0), 0)
		if err != nil {
			return nil, err
		}
		end, err := clamp(arg(args, 1), len(runes))
		if err != nil {
			return nil, err
		}
		if start > end {
			start, end = end, start
		}
		return JSString(runes[start:end]), nil
	})

	r.defineMethod(proto, "substr", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		runes, err := vm.thisRunes(subject, "substr")
		if err != nil {
			return nil, err
		}
		start, _, err := vm.sliceBounds(args[:min(len(args), 1)], len(runes))
		if err != nil {
			return nil, err
		}
		length := len(runes) - start
		if lengthVal := arg(args, 1); lengthVal != undefined {
			l, err := vm.ToInteger(lengthVal)
			if err != nil {
				return nil, err
			}
			length = int(math.Min(math.Max(l, 0), float64(length)))
		}
		return JSString(runes[start : start+length]), nil
	})

	r.defineMethod(proto, "slice", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		runes, err := vm.thisRunes(subject, "slice")
		if err != nil {
			return nil, err
		}
		start, end, err := vm.sliceBounds(args, len(runes))
		if err != nil {
			return nil, err
		}
		return JSString(runes[start:end]), nil
	})

	r.defineMethod(proto, "toLowerCase", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.thisString(subject, "toLowerCase")
		return JSString(strings.ToLower(string(s))), err
	})

	r.defineMethod(proto, "toUpperCase", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.thisString(subject, "toUpperCase")
		return JSString(strings.ToUpper(string(s))), err
	})

	r.defineMethod(proto, "trim", 0, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.thisString(subject, "trim")
		return JSString(strings.TrimFunc(string(s), jsnum.IsSpace)), err
	})

	r.defineMethod(proto, "concat", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.thisString(subject, "concat")
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		sb.WriteString(string(s))
		for _, a := range args {
			as, err := vm.ToString(a)
			if err != nil {
				return nil, err
			}
			sb.WriteString(string(as))
		}
		return JSString(sb.String()), nil
	})

	r.defineMethod(proto, "split", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.thisString(subject, "split")
		if err != nil {
			return nil, err
		}
		limit := uint32(math.MaxUint32)
		if limitVal := arg(args, 1); limitVal != undefined {
			if limit, err = vm.ToUint32(limitVal); err != nil {
				return nil, err
			}
		}

		var parts []JSValue
		switch sep := arg(args, 0).(type) {
		case JSUndefined:
			parts = []JSValue{s}
		case *JSObject:
			if sep.regexpPart != nil {
				parts, err = vm.splitRegExp(s, sep.regexpPart.re)
				break
			}
			parts, err = vm.splitString(s, sep)
		default:
			parts, err = vm.splitString(s, sep)
		}
		if err != nil {
			return nil, err
		}
		if uint32(len(parts)) > limit {
			parts = parts[:limit]
		}
		if parts == nil {
			parts = make([]JSValue, 0)
		}
		return vm.realm.NewArray(parts), nil
	})

	r.defineMethod(proto, "replace", 2, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.thisString(subject, "replace")
		if err != nil {
			return nil, err
		}
		return vm.stringReplace(s, arg(args, 0), arg(args, 1))
	})

	r.defineMethod(proto, "match", 1, func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.thisString(subject, "match")
		if err != nil {
			return nil, err
		}
		reVal := arg(args, 0)
		reObj, isObj := reVal.(*JSObject)
		if !isObj || reObj.regexpPart == nil {
			pattern, err := vm.ToString(reVal)
			if err != nil {
				return nil, err
			}
			created, err := vm.newRegExp(string(pattern), "")
			if err != nil {
				return nil, err
			}
			reObj = created.(*JSObject)
		}

		if !reObj.regexpPart.global {
			return vm.regExpExec(reObj, s)
		}

		var matches []JSValue
		m, err := reObj.regexpPart.re.FindStringMatch(string(s))
		for ; m != nil && err == nil; m, err = reObj.regexpPart.re.FindNextMatch(m) {
			matches = append(matches, JSString(m.String()))
		}
		if err != nil {
			return nil, vm.ThrowError("Error", "regular expression failed: "+err.Error())
		}
		if err := vm.setProperty(reObj, "lastIndex", JSNumber(0)); err != nil {
			return nil, err
		}
		if matches == nil {
			return null, nil
		}
		return vm.realm.NewArray(matches), nil
	})
}

// thisString coerces the receiver of a String.prototype method. null and
// undefined are rejected.
func (vm *VM) thisString(subject JSValue, method string) (JSString, error) {
	if isNullish(subject) {
		return "", vm.ThrowError("TypeError", "String.prototype."+method+" called on "+typeOfNullish(subject))
	}
	return vm.ToString(subject)
}

func (vm *VM) thisRunes(subject JSValue, method string) ([]rune, error) {
	s, err := vm.thisString(subject, method)
	return []rune(string(s)), err
}

func (vm *VM) splitString(s JSString, sepVal JSValue) ([]JSValue, error) {
	sep, err := vm.ToString(sepVal)
	if err != nil {
		return nil, err
	}
	if s == "" {
		if sep == "" {
			return nil, nil
		}
		return []JSValue{s}, nil
	}

	var pieces []string
	if sep == "" {
		// one piece per character
		for _, r := range string(s) {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(string(s), string(sep))
	}
	parts := make([]JSValue, len(pieces))
	for i, piece := range pieces {
		parts[i] = JSString(piece)
	}
	return parts, nil
}

// splitRegExp splits around each match; capture groups are spliced into
// the result.
func (vm *VM) splitRegExp(s JSString, re *regexp2.Regexp) ([]JSValue, error) {
	runes := []rune(string(s))
	if len(runes) == 0 {
		if m, err := re.FindRunesMatchStartingAt(runes, 0); err != nil || m != nil {
			return nil, err
		}
		return []JSValue{s}, nil
	}

	var parts []JSValue
	last := 0
	for pos := 0; pos < len(runes); {
		m, err := re.FindRunesMatchStartingAt(runes, pos)
		if err != nil {
			return nil, vm.ThrowError("Error", "regular expression failed: "+err.Error())
		}
		if m == nil || m.Index >= len(runes) {
			break
		}
		end := m.Index + m.Length
		if end == last {
			// an empty match where the previous one ended
			pos = m.Index + 1
			continue
		}
		parts = append(parts, JSString(runes[last:m.Index]))
		parts = append(parts, matchGroups(m)[1:]...)
		last = end
		pos = end
	}
	parts = append(parts, JSString(runes[last:]))
	return parts, nil
}

// stringReplace implements String.prototype.replace. String patterns
// replace the first occurrence only; regexps replace every match when
// global.
func (vm *VM) stringReplace(s JSString, patternVal, replacement JSValue) (JSValue, error) {
	var re *regexp2.Regexp
	count := 1
	if reObj, isObj := patternVal.(*JSObject); isObj && reObj.regexpPart != nil {
		re = reObj.regexpPart.re
		if reObj.regexpPart.global {
			count = -1
		}
	} else {
		pattern, err := vm.ToString(patternVal)
		if err != nil {
			return nil, err
		}
		re, err = regexp2.Compile(regexp2.Escape(string(pattern)), regexp2.ECMAScript)
		if err != nil {
			return nil, vm.ThrowError("SyntaxError", "invalid regular expression: "+err.Error())
		}
	}

	if fn, isObj := replacement.(*JSObject); isObj && fn.IsCallable() {
		var callErr error
		result, err := re.ReplaceFunc(string(s), func(m regexp2.Match) string {
			if callErr != nil {
				return ""
			}
			callArgs := matchGroups(&m)
			callArgs = append(callArgs, JSNumber(m.Index), s)
			ret, err := vm.invoke(fn, undefined, callArgs, CallFlags{})
			if err != nil {
				callErr = err
				return ""
			}
			str, err := vm.ToString(ret)
			if err != nil {
				callErr = err
				return ""
			}
			return string(str)
		}, -1, count)
		if callErr != nil {
			return nil, callErr
		}
		if err != nil {
			return nil, vm.ThrowError("Error", "regular expression failed: "+err.Error())
		}
		return JSString(result), nil
	}

	replStr, err := vm.ToString(replacement)
	if err != nil {
		return nil, err
	}
	result, err := re.Replace(string(s), translateReplacement(string(replStr)), -1, count)
	if err != nil {
		return nil, vm.ThrowError("Error", "regular expression failed: "+err.Error())
	}
	return JSString(result), nil
}

// translateReplacement rewrites the group references of a JS replacement
// string ($1) into the braced form regexp2 expects (${1}), so that a
// reference followed by a digit is not read as a longer group number.
func translateReplacement(repl string) string {
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		ch := repl[i]
		if ch != '$' || i+1 >= len(repl) {
			sb.WriteByte(ch)
			continue
		}
		next := repl[i+1]
		switch {
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(repl) && j < i+3 && repl[j] >= '0' && repl[j] <= '9' {
				j++
			}
			sb.WriteString("${" + repl[i+1:j] + "}")
			i = j - 1
		case next == '$' || next == '&' || next == '`' || next == '\'':
			sb.WriteByte('$')
			sb.WriteByte(next)
			i++
		default:
			// a lone $ is literal
			sb.WriteString("$$")
		}
	}
	return sb.String()
}
