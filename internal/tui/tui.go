// Package tui is the interactive terminal shell over a grocery list session.
package tui

import (
	"context"
	"errors"

	"grocery-cli/internal/session"
	"grocery-cli/internal/status"
	"grocery-cli/internal/store"
	"grocery-cli/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
)

// bridge forwards engine and session callbacks into the program in order. Callbacks fire
// from inside Update, where a direct Program.Send would block.
type bridge struct {
	ch chan tea.Msg
}

func newBridge() *bridge { return &bridge{ch: make(chan tea.Msg, 256)} }

func (b *bridge) post(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}

func (b *bridge) run(ctx context.Context, p *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.ch:
			p.Send(msg)
		}
	}
}

func Run(ctx context.Context, sess *session.Session, opts Options) error {
	applyColorProfilePreference()
	dark := applyThemePreference(sess.Theme(ctx))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	br := newBridge()
	sess.SetNotify(func(msg string, kind status.Kind) {
		br.post(statusMsg(status.Message{Text: msg, Kind: kind}))
	})
	sess.Engine.OnChange(func() { br.post(changedMsg{}) })

	log := sess.Logger()
	if w, err := watch.New(sess.Store.Dir, store.SQLiteFileName, 0); err != nil {
		log.Warn("file watch disabled", "err", err)
	} else {
		defer w.Close()
		go func() {
			err := w.Run(ctx, func() {
				if err := sess.Engine.Reload(ctx); err != nil {
					log.Warn("reload failed", "err", err)
				}
			})
			if err != nil {
				log.Warn("file watch stopped", "err", err)
			}
		}()
	}

	p := tea.NewProgram(newAppModel(ctx, sess, dark, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	go br.run(ctx, p)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
