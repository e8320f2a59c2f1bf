package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// HandleSignals liga SIGINT e SIGTERM a Trigger. Sinais repetidos durante o
// encerramento são absorvidos. stop desfaz o registro.
func (c *Coordinator) HandleSignals() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				c.Trigger(signalName(sig))
			case <-quit:
				return
			case <-c.done:
				return
			}
		}
	}()

	c.cfg.Logger.Info("Graceful shutdown initiated...")

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}
}

func signalName(sig os.Signal) string {
	switch sig {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return sig.String()
	}
}
