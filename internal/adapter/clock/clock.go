package clock

import (
	"time"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/port"
)

type Real struct{}

func NewReal() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, f func()) port.Task {
	return realTask{timer: time.AfterFunc(d, f)}
}

type realTask struct {
	timer *time.Timer
}

func (t realTask) Cancel() bool {
	return t.timer.Stop()
}
