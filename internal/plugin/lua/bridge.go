package lua

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/commander/internal/host"
)

// Metatable names of the host objects handed to commands.
const (
	entryType    = "commander.entry"
	viewType     = "commander.view"
	documentType = "commander.document"
	windowType   = "commander.window"
)

// ToGoValue converts a Lua value to a Go value. Tables with keys 1..n
// become []any, other tables map[string]any.
func ToGoValue(lv lua.LValue) any {
	return toGoValue(lv, make(map[*lua.LTable]bool))
}

func toGoValue(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGoValue(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = toGoValue(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value. Host objects become
// userdata with methods; unknown types become plain userdata.
func ToLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := L.NewTable()
		for _, s := range val {
			t.Append(lua.LString(s))
		}
		return t
	case []any:
		t := L.NewTable()
		for _, item := range val {
			t.Append(ToLuaValue(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, ToLuaValue(L, val[k]))
		}
		return t
	case host.Entry:
		return newUserData(L, val, entryType)
	case host.View:
		return newUserData(L, val, viewType)
	case host.Document:
		return newUserData(L, val, documentType)
	case host.Window:
		return newUserData(L, val, windowType)
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

func newUserData(L *lua.LState, v any, typ string) lua.LValue {
	if v == nil {
		return lua.LNil
	}
	ud := L.NewUserData()
	ud.Value = v
	L.SetMetatable(ud, L.GetTypeMetatable(typ))
	return ud
}

// StringList reads a string or a list of strings.
func StringList(lv lua.LValue) []string {
	switch v := lv.(type) {
	case lua.LString:
		return []string{string(v)}
	case *lua.LTable:
		var out []string
		v.ForEach(func(_, item lua.LValue) {
			if s, ok := item.(lua.LString); ok {
				out = append(out, string(s))
			}
		})
		return out
	}
	return nil
}

func registerType(L *lua.LState, name string, methods map[string]lua.LGFunction) {
	mt := L.NewTypeMetatable(name)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), methods))
}

func registerHostTypes(L *lua.LState) {
	registerType(L, entryType, entryMethods)
	registerType(L, viewType, viewMethods)
	registerType(L, documentType, documentMethods)
	registerType(L, windowType, windowMethods)
}

func checkEntry(L *lua.LState) host.Entry {
	if e, ok := L.CheckUserData(1).Value.(host.Entry); ok {
		return e
	}
	L.ArgError(1, "entry expected")
	return nil
}

func checkView(L *lua.LState) host.View {
	if v, ok := L.CheckUserData(1).Value.(host.View); ok {
		return v
	}
	L.ArgError(1, "view expected")
	return nil
}

func checkDocument(L *lua.LState) host.Document {
	if d, ok := L.CheckUserData(1).Value.(host.Document); ok {
		return d
	}
	L.ArgError(1, "document expected")
	return nil
}

func checkWindow(L *lua.LState) host.Window {
	if w, ok := L.CheckUserData(1).Value.(host.Window); ok {
		return w
	}
	L.ArgError(1, "window expected")
	return nil
}

var entryMethods = map[string]lua.LGFunction{
	"text": func(L *lua.LState) int {
		L.Push(lua.LString(checkEntry(L).Text()))
		return 1
	},
	"set_text": func(L *lua.LState) int {
		checkEntry(L).SetText(L.CheckString(2))
		return 0
	},
	"set_prompt": func(L *lua.LState) int {
		checkEntry(L).SetPrompt(L.CheckString(2))
		return 0
	},
	"info_show": func(L *lua.LState) int {
		checkEntry(L).InfoShow(L.CheckString(2))
		return 0
	},
	"info_status": func(L *lua.LState) int {
		checkEntry(L).InfoStatus(L.OptString(2, ""))
		return 0
	},
	"info_clear": func(L *lua.LState) int {
		checkEntry(L).InfoClear()
		return 0
	},
	"view": func(L *lua.LState) int {
		L.Push(newUserData(L, checkEntry(L).View(), viewType))
		return 1
	},
}

var viewMethods = map[string]lua.LGFunction{
	"document": func(L *lua.LState) int {
		L.Push(newUserData(L, checkView(L).Document(), documentType))
		return 1
	},
	"window": func(L *lua.LState) int {
		L.Push(newUserData(L, checkView(L).Window(), windowType))
		return 1
	},
	"set_editable": func(L *lua.LState) int {
		checkView(L).SetEditable(L.CheckBool(2))
		return 0
	},
}

var documentMethods = map[string]lua.LGFunction{
	"path": func(L *lua.LState) int {
		L.Push(lua.LString(checkDocument(L).Path()))
		return 1
	},
	"text": func(L *lua.LState) int {
		L.Push(lua.LString(checkDocument(L).Text()))
		return 1
	},
	"set_text": func(L *lua.LState) int {
		checkDocument(L).SetText(L.CheckString(2))
		return 0
	},
	"selection": func(L *lua.LState) int {
		text, ok := checkDocument(L).Selection()
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(text))
		return 1
	},
	"replace_selection": func(L *lua.LState) int {
		checkDocument(L).ReplaceSelection(L.CheckString(2))
		return 0
	},
	"line_count": func(L *lua.LState) int {
		L.Push(lua.LNumber(checkDocument(L).LineCount()))
		return 1
	},
	// Lines and columns are one-based on the Lua side.
	"cursor_line": func(L *lua.LState) int {
		L.Push(lua.LNumber(checkDocument(L).CursorLine() + 1))
		return 1
	},
	"goto_line": func(L *lua.LState) int {
		doc := checkDocument(L)
		doc.Goto(L.CheckInt(2)-1, L.OptInt(3, 1)-1)
		return 0
	},
}

var windowMethods = map[string]lua.LGFunction{
	"open": func(L *lua.LState) int {
		w := checkWindow(L)
		var paths []string
		for i := 2; i <= L.GetTop(); i++ {
			paths = append(paths, L.CheckString(i))
		}
		if err := w.Open(paths...); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	},
}
