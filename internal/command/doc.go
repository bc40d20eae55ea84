// Package command defines the command graph and the calling convention
// shared by the registry, the resolver and the execution engine.
//
// # Nodes
//
// A Node is either a *Command (a leaf) or a *Module, which owns an ordered
// set of child nodes. Names are hyphen-word-separated ("replace-all");
// exported source names have "_" replaced with "-". Every slice of nodes the
// package hands out is sorted by name, and Insert keeps it that way. The
// resolver's binary-search filtering depends on this ordering.
//
// # Calling convention
//
// A Callable declares its parameters once, as Params. Bind matches them
// against an invocation: parameters named after a context key (entry, view,
// window, argstr, args, modifier) receive the context value, the remaining
// ones take words in order, and a variadic parameter collects what is left.
//
// # Results
//
// A call returns either a plain value, one of the Result values (Hide,
// Done), a *Prompt asking for a line of input, a *Suspend waiting for an
// external event, or a Generator. Generators are how commands hold a
// conversation: each yielded Prompt or Suspend pauses the command until the
// engine resumes it with a Reply.
package command
