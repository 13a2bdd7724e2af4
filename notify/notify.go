// ABOUTME: User-visible notifications for failed operations
// ABOUTME: Notifier interface with a retargetable relay and a recording helper
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type Level int

const (
	Info Level = iota
	Success
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "info"
}

// Notice is a single toast shown to the user.
type Notice struct {
	Level   Level
	Message string
	Err     error
	At      time.Time
}

func (n Notice) String() string {
	if n.Err != nil {
		return fmt.Sprintf("%s: %v", n.Message, n.Err)
	}
	return n.Message
}

type Notifier interface {
	Notify(Notice)
}

// Func adapts a plain function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Errorf builds an error notice stamped with the current time.
func Errorf(err error, format string, args ...any) Notice {
	return Notice{Level: Error, Message: fmt.Sprintf(format, args...), Err: err, At: time.Now()}
}

func Successf(format string, args ...any) Notice {
	return Notice{Level: Success, Message: fmt.Sprintf(format, args...), At: time.Now()}
}

// Relay forwards notices to a target that may be attached after construction.
// The TUI program does not exist yet when controllers are built, so notices
// raised before SetTarget fall through to the logger.
type Relay struct {
	mu     sync.RWMutex
	target Notifier
	logger *log.Logger
}

func NewRelay(logger *log.Logger) *Relay {
	return &Relay{logger: logger}
}

func (r *Relay) SetTarget(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = n
}

func (r *Relay) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()

	if target != nil {
		target.Notify(n)
		return
	}
	if r.logger == nil {
		return
	}
	if n.Level == Error {
		r.logger.Error(n.Message, "err", n.Err)
	} else {
		r.logger.Info(n.Message)
	}
}

// Recorder keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Errors returns only the error-level notices.
func (r *Recorder) Errors() []Notice {
	var out []Notice
	for _, n := range r.Notices() {
		if n.Level == Error {
			out = append(out, n)
		}
	}
	return out
}
