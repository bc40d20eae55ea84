// Package engine executes commands and drives paused commands through a
// per-entry suspension stack.
//
// # Conversations
//
// A command either returns a value or pauses. A paused command is a
// command.Generator; the engine pushes it on the State's stack and resumes
// it until it settles:
//
//   - a Prompt or Suspend stops the engine and is handed to the caller, the
//     generator stays on top awaiting the reply
//   - nil, Hide and Done end the top continuation; the engine pops it and
//     resumes the parent with nil
//   - a yielded Generator is pushed and run as a nested conversation
//   - any other value ends a nested conversation and is sent to the parent
//
// Errors raised by a continuation pop it and are thrown into the parent.
// The error is returned once no continuation is left to handle it.
//
// # Usage
//
//	st := engine.NewState()
//	e := engine.New(reg)
//	words := engine.ParseWords(line)
//	res, err := e.Execute(st, line, words, entry, 0)
//
// When res is a Prompt, the next line typed by the user goes through
// Execute again and is delivered to the paused command as a command.Reply.
package engine
