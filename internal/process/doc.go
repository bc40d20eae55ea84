// Package process runs shell commands on behalf of commands.
//
// A Process wraps an exec.Cmd started through the user's shell. Standard
// output and standard error are merged and delivered line by line to an
// output callback on a reader goroutine; hosts must hop to their UI loop
// before touching editor state.
//
//	p, err := process.Start("make test",
//	    process.WithDir(dir),
//	    process.WithOutput(func(line string) { entry.Post(func() { entry.InfoShow(line) }) }),
//	)
//	if err != nil {
//	    return err
//	}
//	<-p.Done()
//
// Kill terminates the whole process group so that pipelines started by
// the shell do not outlive the command.
package process
