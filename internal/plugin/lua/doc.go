// Package lua loads command modules written in Lua.
//
// A module is a file name.lua, or a directory name/ with an init.lua, whose
// chunk returns a table of commands:
//
//	local M = {}
//
//	M.greet = commander.command(function(entry, name)
//	    entry:info_show("hello " .. name)
//	    return commander.DONE
//	end, { doc = "Say hello", autocomplete = { name = { "world", "moon" } } })
//
//	M.ask = function(entry)
//	    local reply = commander.ask("Name:")
//	    entry:info_show(reply)
//	    return commander.DONE
//	end
//
//	M.__root = { "greet" }
//	return M
//
// Parameter names are read from the function: entry, view, window, argstr,
// args and modifier receive context values, other parameters take words
// and "..." takes the rest.
//
// # State
//
// Each load gets its own sandboxed State. The loader globals are removed,
// io and debug are not opened and require only resolves files inside a
// directory module. Closing the unit closes the State, so a reload starts
// from nothing.
//
// # Commands as coroutines
//
// Every call runs on a new Lua thread. A command that yields, directly or
// through commander.ask and commander.wait, becomes a paused continuation.
// Errors delivered to a paused command are raised at the yield inside
// commander.ask and commander.wait; cancellation raises command.ErrCancelled
// there and then runs the functions registered with commander.finally.
package lua
