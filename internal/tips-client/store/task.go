package store

import "context"

// Task é o handle de um Load em segundo plano
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// LoadAsync inicia Load numa goroutine. Cancel descarta o resultado se ele ainda não foi aplicado.
func (s *Store) LoadAsync(ctx context.Context) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		s.Load(ctx)
	}()
	return t
}

// Cancel sinaliza que o chamador perdeu o interesse no resultado
func (t *Task) Cancel() { t.cancel() }

// Done fecha quando o Load termina (aplicado ou descartado)
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait bloqueia até o Load terminar
func (t *Task) Wait() { <-t.done }
