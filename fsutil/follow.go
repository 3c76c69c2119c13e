package fsutil

import (
	"fmt"
	"io"

	"github.com/hpcloud/tail"
)

// Follower copies lines appended to a log file to an output writer. The
// IFS writes its progress to NODE.001_01 style log files rather than to
// stdout, so the harness follows the file while the launched process is
// running.
type Follower struct {
	proc *tail.Tail
	done chan struct{}
}

// Follow starts following logFile, writing every complete line to out.
// The file does not have to exist yet; it is picked up on creation.
func Follow(logFile Path, out io.Writer) (*Follower, error) {
	proc, err := tail.TailFile(logFile.String(), tail.Config{
		Follow:    true,
		MustExist: false,
		ReOpen:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("following `%s`: %w", logFile, err)
	}

	f := &Follower{proc: proc, done: make(chan struct{})}

	go func() {
		defer close(f.done)
		for line := range proc.Lines {
			if line.Err != nil {
				return
			}
			fmt.Fprintln(out, line.Text)
		}
	}()

	return f, nil
}

// Stop ends the follow and waits for pending lines to be flushed.
func (f *Follower) Stop() {
	f.proc.Stop()
	<-f.done
}
